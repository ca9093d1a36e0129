package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/twinq/internal/criteria"
	"github.com/roach88/twinq/internal/index"
	"github.com/roach88/twinq/internal/relational"
	"github.com/roach88/twinq/internal/request"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Backends []string
	Dialect  string
}

// Rendered is one backend's rendering of a request.
type Rendered struct {
	Backend criteria.Backend `json:"backend"`
	Query   string           `json:"query,omitempty"`
	Params  any              `json:"params,omitempty"`
	Skipped string           `json:"skipped,omitempty"`
}

// RenderResult holds every rendering of one request.
type RenderResult struct {
	Entity     string     `json:"entity"`
	Renderings []Rendered `json:"renderings"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <request-file>",
		Short: "Render a request for each backend",
		Long: `Render a request as relational query text, as a structured criteria
query, and as search-index parameters, without running it.

Backends that cannot express the request are reported as skipped.

Examples:
  twinq render ./requests/products.yaml
  twinq render ./requests/products.yaml --backend index
  twinq render ./requests/orders.yaml --dialect hql --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Backends, "backend", nil, "backends to render (relational, criteria, index); default all")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "relational dialect (hql|sql)")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	backends, err := parseBackends(opts.Backends)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid --backend", err)
	}

	resolver, err := loadResolver(opts.setting(opts.Registry, KeyRegistry))
	if err != nil {
		return formatter.Fail(exitCode(err), errorCode(err), "failed to load registry", err)
	}
	req, err := loadRequest(path)
	if err != nil {
		return formatter.Fail(exitCode(err), errorCode(err), "failed to load request", err)
	}

	dialect, err := relational.ParseDialect(opts.setting(opts.Dialect, KeyDialect), resolver)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid dialect", err)
	}
	formatter.VerboseLog("Rendering %s with the %s dialect", req.Entity, dialect.Name)

	r := &renderer{
		relations: relational.NewRenderer(relational.WithDialect(dialect), relational.WithLogger(opts.logger())),
		documents: index.NewRenderer(resolver, index.WithLogger(opts.logger())),
		keys:      resolver,
	}

	result := RenderResult{Entity: req.Entity}
	for _, backend := range backends {
		rendered, err := r.render(req, backend)
		if err != nil {
			return formatter.Fail(ExitFailure, errorCode(err), fmt.Sprintf("%s rendering failed", backend), err)
		}
		result.Renderings = append(result.Renderings, rendered)
	}

	return formatter.Success(result, func(w io.Writer) {
		writeRenderings(w, result.Renderings)
	})
}

// renderer renders one request for any backend.
type renderer struct {
	relations *relational.Renderer
	documents *index.Renderer
	keys      criteria.KeyResolver
}

func (r *renderer) render(req *request.Request, backend criteria.Backend) (Rendered, error) {
	out := Rendered{Backend: backend}

	if backend == criteria.BackendIndex {
		if len(req.Joins) > 0 {
			out.Skipped = "joins have no index form"
			return out, nil
		}
		q, err := req.IndexQuery(r.keys)
		if err != nil {
			return out, err
		}
		if out.Skipped = skipReason(q.Filter, backend); out.Skipped != "" {
			return out, nil
		}
		ix, err := r.documents.Render(q)
		if err != nil {
			return out, err
		}
		out.Query = ix.Query
		out.Params = map[string][]string(ix.Params())
		return out, nil
	}

	q, err := req.EntityQuery(r.keys)
	if err != nil {
		return out, err
	}
	if out.Skipped = skipReason(q.Filter, backend); out.Skipped != "" {
		return out, nil
	}

	if backend == criteria.BackendCriteria {
		c, err := r.relations.Criteria(q)
		if err != nil {
			return out, err
		}
		text, args, err := c.ToSql()
		if err != nil {
			return out, err
		}
		out.Query = text
		if len(args) > 0 {
			out.Params = args
		}
		return out, nil
	}

	stmt, err := r.relations.Render(q)
	if err != nil {
		return out, err
	}
	out.Query = stmt.Text
	if len(stmt.Params) > 0 {
		out.Params = stmt.Named()
	}
	return out, nil
}

// skipReason returns why backend cannot render f, or "".
func skipReason(f criteria.Filter, backend criteria.Backend) string {
	v := criteria.Validate(f)
	if v.Supported[backend] {
		return ""
	}
	var reasons []string
	for _, w := range v.Warnings {
		if strings.Contains(w, string(backend)) {
			reasons = append(reasons, w)
		}
	}
	if len(reasons) == 0 {
		return "not supported by " + string(backend)
	}
	return strings.Join(reasons, "; ")
}

// parseBackends maps backend names to backends in rendering order. No names
// selects every backend.
func parseBackends(names []string) ([]criteria.Backend, error) {
	if len(names) == 0 || slices.Contains(names, "all") {
		return criteria.Backends, nil
	}
	var selected []criteria.Backend
	for _, b := range criteria.Backends {
		if slices.Contains(names, string(b)) {
			selected = append(selected, b)
		}
	}
	for _, name := range names {
		if !slices.Contains(criteria.Backends, criteria.Backend(name)) {
			return nil, fmt.Errorf("unknown backend %q", name)
		}
	}
	return selected, nil
}

func writeRenderings(w io.Writer, renderings []Rendered) {
	for i, r := range renderings {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s]\n", r.Backend)
		if r.Skipped != "" {
			fmt.Fprintf(w, "  skipped: %s\n", r.Skipped)
			continue
		}
		if r.Query != "" {
			fmt.Fprintf(w, "  %s\n", r.Query)
		}
		switch params := r.Params.(type) {
		case map[string]any:
			for _, name := range slices.Sorted(maps.Keys(params)) {
				fmt.Fprintf(w, "  %s = %v\n", name, params[name])
			}
		case []any:
			for i, v := range params {
				fmt.Fprintf(w, "  $%d = %v\n", i+1, v)
			}
		case map[string][]string:
			for _, name := range slices.Sorted(maps.Keys(params)) {
				for _, v := range params[name] {
					fmt.Fprintf(w, "  %s = %s\n", name, v)
				}
			}
		}
	}
}
