package harness

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// FindScenarios returns the YAML files under dir, optionally filtered by a
// glob. The glob is matched against the file name without extension and
// against the slash-separated path relative to dir, so "count" and
// "facets/**" both work.
func FindScenarios(dir, filter string) ([]string, error) {
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, fmt.Errorf("invalid filter pattern: %w", doublestar.ErrBadPattern)
	}

	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" && !matchScenario(dir, path, filter) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func matchScenario(dir, path, filter string) bool {
	ext := filepath.Ext(path)
	if ok, _ := doublestar.Match(filter, strings.TrimSuffix(filepath.Base(path), ext)); ok {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	ok, _ := doublestar.Match(filter, strings.TrimSuffix(filepath.ToSlash(rel), ext))
	return ok
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a scenario that failed to load, run or pass.
type ScenarioFailure struct {
	Scenario string `json:"scenario"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// RunSuite loads and runs every scenario under dir.
// Scenarios run concurrently, each against its own database and index;
// failures are reported in path order. A scenario that fails to load or run
// counts as failed; RunSuite itself only fails when dir cannot be walked or
// ctx is cancelled.
func RunSuite(ctx context.Context, dir, filter string, logger *slog.Logger) (*SuiteResult, error) {
	paths, err := FindScenarios(dir, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find scenarios: %w", err)
	}

	failures := make([]*ScenarioFailure, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			failures[i] = runOne(gctx, path, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &SuiteResult{Total: len(paths)}
	for _, f := range failures {
		if f == nil {
			result.Passed++
			continue
		}
		result.Failed++
		result.Failures = append(result.Failures, *f)
	}
	return result, nil
}

func runOne(ctx context.Context, path string, logger *slog.Logger) *ScenarioFailure {
	scenario, err := LoadScenario(path)
	if err != nil {
		return &ScenarioFailure{Scenario: filepath.Base(path), Path: path, Error: fmt.Sprintf("failed to load scenario: %v", err)}
	}

	runResult, err := RunContext(ctx, scenario, logger)
	if err != nil {
		return &ScenarioFailure{Scenario: scenario.Name, Path: path, Error: fmt.Sprintf("scenario execution failed: %v", err)}
	}

	if !runResult.Pass {
		return &ScenarioFailure{Scenario: scenario.Name, Path: path, Error: fmt.Sprintf("scenario assertions failed: %v", runResult.Errors)}
	}
	return nil
}
