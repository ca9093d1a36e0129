package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/twinq/internal/criteria"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string    // Assertion type for categorization
	Backend  string    // Backend whose outcome failed, if any
	Expected string    // Human-readable expected outcome
	Actual   string    // Human-readable actual outcome
	Outcomes []Outcome // Every outcome, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Backend != "" {
		fmt.Fprintf(&buf, " (%s)", e.Backend)
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nOutcomes:\n")
	for _, o := range e.Outcomes {
		if !o.Ran() {
			fmt.Fprintf(&buf, "  %s: skipped: %s\n", o.Backend, o.Skipped)
			continue
		}
		fmt.Fprintf(&buf, "  %s: %s -> %v (count %d)\n", o.Backend, o.Query, o.IDs, o.Count)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion of the scenario and returns the
// failure messages.
func EvaluateAssertions(result *Result, s *Scenario) []string {
	ordered := len(s.Request.Order) > 0
	counting := s.Request.Count

	var errs []string
	for _, a := range s.Assertions {
		var err error
		switch a.Type {
		case AssertIDs:
			err = assertIDs(result, a, ordered)
		case AssertCount:
			err = assertCount(result, a)
		case AssertAgree:
			err = assertAgree(result, ordered, counting)
		case AssertFacet:
			err = assertFacet(result, a)
		case AssertSkipped:
			err = assertSkipped(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// targets returns the outcomes an assertion applies to: one backend, or
// every backend that ran.
func targets(result *Result, a Assertion) ([]Outcome, error) {
	if a.Backend == "" {
		return result.Ran(), nil
	}
	o := result.Outcome(a.Backend)
	if o == nil {
		return nil, &AssertionError{
			Type:     a.Type,
			Backend:  string(a.Backend),
			Expected: "backend to run",
			Actual:   "backend not selected",
			Outcomes: result.Outcomes,
		}
	}
	if !o.Ran() {
		return nil, &AssertionError{
			Type:     a.Type,
			Backend:  string(a.Backend),
			Expected: "backend to run",
			Actual:   "skipped: " + o.Skipped,
			Outcomes: result.Outcomes,
		}
	}
	return []Outcome{*o}, nil
}

// assertIDs compares primary keys, in order when the request is ordered.
func assertIDs(result *Result, a Assertion, ordered bool) error {
	outcomes, err := targets(result, a)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if !sameIDs(o.IDs, a.IDs, ordered) {
			return &AssertionError{
				Type:     AssertIDs,
				Backend:  string(o.Backend),
				Expected: fmt.Sprintf("%v", a.IDs),
				Actual:   fmt.Sprintf("%v", o.IDs),
				Outcomes: result.Outcomes,
			}
		}
	}
	return nil
}

// assertCount checks the number of matches.
func assertCount(result *Result, a Assertion) error {
	outcomes, err := targets(result, a)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Count != a.Count {
			return &AssertionError{
				Type:     AssertCount,
				Backend:  string(o.Backend),
				Expected: fmt.Sprintf("%d", a.Count),
				Actual:   fmt.Sprintf("%d", o.Count),
				Outcomes: result.Outcomes,
			}
		}
	}
	return nil
}

// assertAgree checks that every backend that ran returned the same keys, or
// the same count for count requests.
func assertAgree(result *Result, ordered, counting bool) error {
	ran := result.Ran()
	if len(ran) < 2 {
		return &AssertionError{
			Type:     AssertAgree,
			Expected: "at least two backends to run",
			Actual:   fmt.Sprintf("%d ran", len(ran)),
			Outcomes: result.Outcomes,
		}
	}
	first := ran[0]
	for _, o := range ran[1:] {
		same := o.Count == first.Count
		if !counting {
			same = sameIDs(o.IDs, first.IDs, ordered)
		}
		if !same {
			return &AssertionError{
				Type:     AssertAgree,
				Backend:  string(o.Backend),
				Expected: fmt.Sprintf("%s: %v (count %d)", first.Backend, first.IDs, first.Count),
				Actual:   fmt.Sprintf("%s: %v (count %d)", o.Backend, o.IDs, o.Count),
				Outcomes: result.Outcomes,
			}
		}
	}
	return nil
}

// assertFacet checks index facet counts (subset match).
func assertFacet(result *Result, a Assertion) error {
	a.Backend = criteria.BackendIndex
	outcomes, err := targets(result, a)
	if err != nil {
		return err
	}
	counts := outcomes[0].Facets[a.Field]
	for value, want := range a.Counts {
		if got := counts[value]; got != want {
			return &AssertionError{
				Type:     AssertFacet,
				Backend:  string(criteria.BackendIndex),
				Expected: fmt.Sprintf("%s=%s: %d", a.Field, value, want),
				Actual:   fmt.Sprintf("%s=%s: %d", a.Field, value, got),
				Outcomes: result.Outcomes,
			}
		}
	}
	return nil
}

// assertSkipped checks that the backend did not run.
func assertSkipped(result *Result, a Assertion) error {
	o := result.Outcome(a.Backend)
	if o == nil || o.Ran() {
		return &AssertionError{
			Type:     AssertSkipped,
			Backend:  string(a.Backend),
			Expected: "backend skipped",
			Actual:   "backend ran or was not selected",
			Outcomes: result.Outcomes,
		}
	}
	return nil
}

func sameIDs(got, want []string, ordered bool) bool {
	if ordered {
		return slices.Equal(got, want)
	}
	return slices.Equal(sortedCopy(got), sortedCopy(want))
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
