package criteria

import "strconv"

// DefaultParameterName is the base of every generated parameter name.
const DefaultParameterName = "p"

// Namer hands out parameter names during one render pass.
//
// Names are assigned in pre-order, one per filter node: p0, p1, p2, ...
// A fresh Namer is created for every render call, so names are unique within
// the rendered statement, identical across re-renders of the same tree, and
// never shared between the relational and index renderers. Filters are not
// mutated.
type Namer struct {
	base string
	next int
}

// NewNamer creates a Namer. A blank base falls back to DefaultParameterName.
func NewNamer(base string) *Namer {
	if base == "" {
		base = DefaultParameterName
	}
	return &Namer{base: base}
}

// Next returns the next unused name.
func (n *Namer) Next() string {
	name := n.base + strconv.Itoa(n.next)
	n.next++
	return name
}
