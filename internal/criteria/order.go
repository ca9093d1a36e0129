package criteria

import "iter"

// Order is one node of a sort chain. Then links to the next sort key; render
// order is traversal order.
type Order struct {
	Field   string
	Alias   string
	Reverse bool
	Then    *Order
}

// NewOrder creates a single-node chain.
func NewOrder(field, alias string, reverse bool) *Order {
	return &Order{Field: field, Alias: alias, Reverse: reverse}
}

// Asc creates an ascending sort key without alias.
func Asc(field string) *Order {
	return &Order{Field: field}
}

// Desc creates a descending sort key without alias.
func Desc(field string) *Order {
	return &Order{Field: field, Reverse: true}
}

// OrdersOf chains fields in order. The first field takes the given direction,
// the rest sort ascending. Returns nil when no fields are given.
func OrdersOf(reverse bool, fields ...string) *Order {
	var head *Order
	for i, field := range fields {
		node := &Order{Field: field, Reverse: reverse && i == 0}
		head = head.Append(node)
	}
	return head
}

// Append links next at the tail of the chain and returns the head. A nil
// receiver returns next. When next shares its tail with the chain, linking it
// would close a loop, so the chain is returned unchanged.
func (o *Order) Append(next *Order) *Order {
	if o == nil {
		return next
	}
	if next == nil {
		return o
	}
	tail := o.Tail()
	if next.Tail() == tail {
		return o
	}
	tail.Then = next
	return o
}

// Tail returns the last node of the chain.
func (o *Order) Tail() *Order {
	if o == nil {
		return nil
	}
	tail := o
	for tail.Then != nil {
		tail = tail.Then
	}
	return tail
}

// Len returns the number of nodes in the chain.
func (o *Order) Len() int {
	n := 0
	for range o.All() {
		n++
	}
	return n
}

// All iterates the chain from head to tail.
func (o *Order) All() iter.Seq[*Order] {
	return func(yield func(*Order) bool) {
		for node := o; node != nil; node = node.Then {
			if !yield(node) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the chain.
func (o *Order) Clone() *Order {
	var head *Order
	for node := range o.All() {
		head = head.Append(&Order{Field: node.Field, Alias: node.Alias, Reverse: node.Reverse})
	}
	return head
}

// WithAliasPrefix returns a copy of the chain with every alias prefixed.
func (o *Order) WithAliasPrefix(prefix string) *Order {
	head := o.Clone()
	for node := range head.All() {
		node.Alias = PrefixAlias(node.Alias, prefix)
	}
	return head
}

// Direction returns "asc" or "desc".
func (o *Order) Direction() string {
	if o.Reverse {
		return "desc"
	}
	return "asc"
}
