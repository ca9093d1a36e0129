package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/twinq/internal/criteria"
	"github.com/roach88/twinq/internal/fieldmap"
	"github.com/roach88/twinq/internal/index"
	"github.com/roach88/twinq/internal/index/memindex"
	"github.com/roach88/twinq/internal/relational"
	"github.com/roach88/twinq/internal/store"
)

// Harness is the scenario execution engine. Every run gets a fresh
// in-memory database and index.
type Harness struct {
	store     *store.Store
	index     *memindex.Index
	registry  *fieldmap.Registry
	relations *relational.Renderer
	documents *index.Renderer
	logger    *slog.Logger
}

// Run executes a scenario with logging suppressed.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, nil)
}

// RunContext executes a scenario and returns the result.
//
// Execution flow:
// 1. Register the fixture entities and seed a fresh database and index
// 2. Build the entity and index descriptors from the request
// 3. Run each selected backend, skipping those that cannot express it
// 4. Evaluate assertions against the outcomes
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	registry := registryOf(scenario.Fixture)
	st, err := store.Open(store.DriverSQLite, ":memory:",
		store.WithLogger(logger),
		store.WithTables(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:     st,
		index:     memindex.New(memindex.WithLogger(logger)),
		registry:  registry,
		relations: relational.NewRenderer(relational.WithDialect(relational.SQL(registry)), relational.WithLogger(logger)),
		documents: index.NewRenderer(registry, index.WithLogger(logger)),
		logger:    logger,
	}

	if err := h.seed(ctx, scenario.Fixture); err != nil {
		return nil, fmt.Errorf("failed to seed fixture: %w", err)
	}

	result := NewResult()
	for _, backend := range criteria.Backends {
		if len(scenario.Backends) > 0 && !slices.Contains(scenario.Backends, backend) {
			continue
		}
		outcome, err := h.runBackend(ctx, scenario, backend)
		if err != nil {
			return nil, fmt.Errorf("%s backend: %w", backend, err)
		}
		h.logger.Info("backend completed",
			"scenario", scenario.Name,
			"backend", backend,
			"count", outcome.Count,
			"skipped", outcome.Skipped)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario) {
		result.AddError(errMsg)
	}
	return result, nil
}

// registryOf registers every fixture column as a field indexed under its
// own name.
func registryOf(fixture []Table) *fieldmap.Registry {
	entities := make(map[string]fieldmap.Entity, len(fixture))
	for _, t := range fixture {
		fields := make(map[string]fieldmap.Field)
		for _, col := range t.Columns() {
			fields[col] = fieldmap.Field{}
		}
		entities[t.Entity] = fieldmap.Entity{
			Table:      t.Table,
			PrimaryKey: t.PrimaryKey,
			Fields:     fields,
		}
	}
	return fieldmap.New(entities)
}

// seed creates one untyped table per fixture entity and inserts its rows
// into the database and the index.
func (h *Harness) seed(ctx context.Context, fixture []Table) error {
	for _, t := range fixture {
		table, err := h.registry.Table(t.Entity)
		if err != nil {
			return err
		}
		cols := t.Columns()
		ddl := fmt.Sprintf("CREATE TABLE %s (%s PRIMARY KEY, %s)", table, cols[0], strings.Join(cols[1:], ", "))
		if len(cols) == 1 {
			ddl = fmt.Sprintf("CREATE TABLE %s (%s PRIMARY KEY)", table, cols[0])
		}
		if err := h.store.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}

		for i, row := range t.Rows {
			values := make([]any, len(cols))
			for j, col := range cols {
				values[j] = row[col]
			}
			text, args, err := sq.Insert(table).Columns(cols...).Values(values...).ToSql()
			if err != nil {
				return fmt.Errorf("%s row %d: %w", t.Entity, i, err)
			}
			if err := h.store.Exec(ctx, text, args...); err != nil {
				return fmt.Errorf("%s row %d: %w", t.Entity, i, err)
			}
			h.index.Add(t.Entity, document(row))
		}
		h.logger.Debug("fixture seeded", "entity", t.Entity, "table", table, "rows", len(t.Rows))
	}
	return nil
}

// document drops null values; an index has no stored nulls.
func document(row map[string]any) index.Document {
	doc := make(index.Document, len(row))
	for k, v := range row {
		if v != nil {
			doc[k] = v
		}
	}
	return doc
}

func (h *Harness) runBackend(ctx context.Context, s *Scenario, backend criteria.Backend) (Outcome, error) {
	out := Outcome{Backend: backend}

	if backend == criteria.BackendIndex {
		if len(s.Request.Joins) > 0 {
			out.Skipped = "joins have no index form"
			return out, nil
		}
		q, err := s.Request.IndexQuery(h.registry)
		if err != nil {
			return out, err
		}
		if reason := unsupported(q.Filter, backend); reason != "" {
			out.Skipped = reason
			return out, nil
		}
		return h.runIndex(ctx, q, out)
	}

	q, err := s.Request.EntityQuery(h.registry)
	if err != nil {
		return out, err
	}
	if reason := unsupported(q.Filter, backend); reason != "" {
		out.Skipped = reason
		return out, nil
	}
	if backend == criteria.BackendCriteria {
		return h.runCriteria(ctx, q, out)
	}
	return h.runRelational(ctx, q, out)
}

// unsupported returns the validation warnings for backend, or "".
func unsupported(f criteria.Filter, backend criteria.Backend) string {
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

func (h *Harness) runRelational(ctx context.Context, q criteria.EntityQuery, out Outcome) (Outcome, error) {
	stmt, err := h.relations.Render(q)
	if err != nil {
		return out, err
	}
	out.Query = stmt.Text
	if len(stmt.Params) > 0 {
		out.Params = stmt.Named()
	}

	res, err := h.store.Execute(ctx, stmt)
	if err != nil {
		return out, err
	}
	return h.rows(q, res, out)
}

func (h *Harness) runCriteria(ctx context.Context, q criteria.EntityQuery, out Outcome) (Outcome, error) {
	c, err := h.relations.Criteria(q)
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

	res, err := h.store.ExecuteCriteria(ctx, c)
	if err != nil {
		return out, err
	}
	return h.rows(q, res, out)
}

func (h *Harness) rows(q criteria.EntityQuery, res *store.Result, out Outcome) (Outcome, error) {
	out.Count = res.Count
	if q.Count {
		return out, nil
	}
	pk, err := h.registry.PrimaryKey(q.Entity)
	if err != nil {
		return out, err
	}
	for _, row := range res.Rows {
		out.IDs = append(out.IDs, fmt.Sprint(row[pk]))
	}
	return out, nil
}

func (h *Harness) runIndex(ctx context.Context, q criteria.IndexQuery, out Outcome) (Outcome, error) {
	req, err := h.documents.Render(q)
	if err != nil {
		return out, err
	}
	out.Query = req.Query
	out.Params = map[string][]string(req.Params())

	res, err := h.index.Search(ctx, req)
	if err != nil {
		return out, err
	}
	out.Count = res.Count

	pk, err := h.registry.PrimaryKey(q.Entity)
	if err != nil {
		return out, err
	}
	for _, doc := range res.Documents {
		if id, ok := doc[pk]; ok {
			out.IDs = append(out.IDs, fmt.Sprint(id))
		}
	}
	for _, field := range slices.Sorted(maps.Keys(res.Facets)) {
		if out.Facets == nil {
			out.Facets = make(map[string]map[string]int64)
		}
		out.Facets[field] = res.FacetCounts(field)
	}
	return out, nil
}
