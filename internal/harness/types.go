package harness

import (
	"github.com/roach88/twinq/internal/criteria"
)

// Outcome is what one backend produced for the scenario request.
type Outcome struct {
	Backend criteria.Backend `json:"backend"`

	// Query is the rendered query: statement text with named parameters,
	// SQL with ? placeholders, or the free-text index query.
	Query string `json:"query,omitempty"`

	// Params holds the bound values or the index request parameters.
	Params any `json:"params,omitempty"`

	// IDs are the primary keys of the returned rows, as strings.
	IDs []string `json:"ids,omitempty"`

	// Count is the number of matches, before paging for the index.
	Count int64 `json:"count"`

	// Facets maps index facet fields to value counts.
	Facets map[string]map[string]int64 `json:"facets,omitempty"`

	// Skipped is the reason the backend did not run; empty when it ran.
	Skipped string `json:"skipped,omitempty"`
}

// Ran reports whether the backend executed the request.
func (o Outcome) Ran() bool {
	return o.Skipped == ""
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Outcomes holds one entry per backend, in criteria.Backends order.
	Outcomes []Outcome `json:"outcomes"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Outcomes: []Outcome{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Outcome returns the outcome of backend, or nil.
func (r *Result) Outcome(backend criteria.Backend) *Outcome {
	for i := range r.Outcomes {
		if r.Outcomes[i].Backend == backend {
			return &r.Outcomes[i]
		}
	}
	return nil
}

// Ran returns the outcomes of the backends that executed the request.
func (r *Result) Ran() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Ran() {
			out = append(out, o)
		}
	}
	return out
}
