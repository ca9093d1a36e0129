package relational

// Param is one named bind parameter.
type Param struct {
	Name  string
	Value any
}

// Binder receives named parameters, e.g. a query object of an ORM session.
type Binder interface {
	SetParameter(name string, value any)
}

// Statement is a rendered relational query.
type Statement struct {
	// Text is the query with :name parameter markers.
	Text string

	// Params holds every bound parameter in render order.
	Params []Param

	// First and PageSize are passed through to the executor; 0 means unset.
	First    int
	PageSize int

	// UseCache is the executor's cache hint.
	UseCache bool

	// Count is set for count queries; the result is a single number.
	Count bool
}

// Bind pushes every parameter into b.
func (s Statement) Bind(b Binder) {
	for _, p := range s.Params {
		b.SetParameter(p.Name, p.Value)
	}
}

// Named returns the parameters keyed by name.
func (s Statement) Named() map[string]any {
	named := make(map[string]any, len(s.Params))
	for _, p := range s.Params {
		named[p.Name] = p.Value
	}
	return named
}

// Positional rewrites the statement for drivers with ? placeholders.
func (s Statement) Positional() (string, []any, error) {
	return Positional(s.Text, s.Params)
}
