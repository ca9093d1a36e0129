package harness

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/twinq/internal/criteria"
	"github.com/roach88/twinq/internal/request"
)

// validIdentifier matches the table and column names a fixture may use.
// Fixture names are interpolated into DDL.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Scenario defines a round-trip scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture lists the entities and rows seeded into every backend.
	Fixture []Table `yaml:"fixture"`

	// Request is run on every backend.
	Request request.Request `yaml:"request"`

	// Backends restricts the backends run. Empty runs all of them.
	Backends []criteria.Backend `yaml:"backends,omitempty"`

	// Assertions validate the outcomes.
	Assertions []Assertion `yaml:"assertions"`
}

// Table is the fixture of one entity.
type Table struct {
	Entity string `yaml:"entity"`

	// Table defaults to the registry's plural of the entity name.
	Table string `yaml:"table,omitempty"`

	// PrimaryKey defaults to "id".
	PrimaryKey string `yaml:"primary_key,omitempty"`

	// Rows are inserted as table rows and added as index documents. Null
	// values are stored as NULL and left out of documents.
	Rows []map[string]any `yaml:"rows"`
}

// Columns returns the union of the row keys, primary key first, the rest
// sorted.
func (t Table) Columns() []string {
	pk := t.PrimaryKey
	if pk == "" {
		pk = "id"
	}
	seen := map[string]bool{pk: true}
	var rest []string
	for _, row := range t.Rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				rest = append(rest, col)
			}
		}
	}
	slices.Sort(rest)
	return append([]string{pk}, rest...)
}

// Assertion validates the outcomes.
type Assertion struct {
	// Type specifies the assertion type:
	// - "ids": primary keys returned
	// - "count": number of matches
	// - "agree": every backend that ran returned the same keys
	// - "facet": index facet value counts
	// - "skipped": the backend did not run
	Type string `yaml:"type"`

	// Backend limits ids and count to one backend; empty checks every
	// backend that ran. Required by skipped.
	Backend criteria.Backend `yaml:"backend,omitempty"`

	// IDs are the expected primary keys (used by ids).
	IDs []string `yaml:"ids,omitempty"`

	// Count is the expected number of matches (used by count).
	Count int64 `yaml:"count,omitempty"`

	// Field is the facet field (used by facet).
	Field string `yaml:"field,omitempty"`

	// Counts are the expected value counts (used by facet). Subset match.
	Counts map[string]int64 `yaml:"counts,omitempty"`
}

// Assertion type constants.
const (
	AssertIDs     = "ids"
	AssertCount   = "count"
	AssertAgree   = "agree"
	AssertFacet   = "facet"
	AssertSkipped = "skipped"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Fixture) == 0 {
		return fmt.Errorf("fixture list is required and must be non-empty")
	}

	if s.Request.Entity == "" {
		return fmt.Errorf("request.entity is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	entities := map[string]bool{}
	for i, t := range s.Fixture {
		if t.Entity == "" {
			return fmt.Errorf("fixture[%d]: entity is required", i)
		}
		if entities[t.Entity] {
			return fmt.Errorf("fixture[%d]: duplicate entity %q", i, t.Entity)
		}
		entities[t.Entity] = true
		if t.Table != "" && !validIdentifier.MatchString(t.Table) {
			return fmt.Errorf("fixture[%d]: invalid table name %q", i, t.Table)
		}
		for _, col := range t.Columns() {
			if !validIdentifier.MatchString(col) {
				return fmt.Errorf("fixture[%d]: invalid column name %q", i, col)
			}
		}
	}
	if !entities[s.Request.Entity] {
		return fmt.Errorf("request entity %q has no fixture", s.Request.Entity)
	}

	for i, b := range s.Backends {
		if !slices.Contains(criteria.Backends, b) {
			return fmt.Errorf("backends[%d]: unknown backend %q", i, b)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Backend != "" && !slices.Contains(criteria.Backends, a.Backend) {
		return fmt.Errorf("assertions[%d]: unknown backend %q", index, a.Backend)
	}

	switch a.Type {
	case AssertIDs, AssertAgree:
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFacet:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for facet", index)
		}
		if len(a.Counts) == 0 {
			return fmt.Errorf("assertions[%d]: counts are required for facet", index)
		}
	case AssertSkipped:
		if a.Backend == "" {
			return fmt.Errorf("assertions[%d]: backend is required for skipped", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
