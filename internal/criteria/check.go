package criteria

import (
	"fmt"
	"regexp"
	"strings"
)

// fieldPath matches a dotted identifier path such as "id" or "o.customerId".
var fieldPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Check validates every node of a filter tree, returning the first invalid
// argument error. Renderers call it so that trees built from struct literals
// fail the same way as trees built with constructors. A nil filter is valid.
func Check(f Filter) error {
	switch v := f.(type) {
	case nil:
		return nil
	case Equals:
		return checkEquals(v)
	case Between:
		return checkBetween(v)
	case In:
		return checkIn(v)
	case Like:
		return checkLike(v)
	case Null:
		return checkField(KindNull, v.Field)
	case FieldEquals:
		return checkFieldEquals(v)
	case Coalesce:
		return checkCoalesce(v)
	case Exists:
		return checkExists(v)
	case Not:
		if v.Filter == nil {
			return NewInvalidArgument(KindNot, "filter required")
		}
		return Check(v.Filter)
	case And:
		return checkAll(v.Filters)
	case Or:
		return checkAll(v.Filters)
	default:
		return NewInvalidArgument("", "unknown filter type: %T", f)
	}
}

func checkAll(filters []Filter) error {
	for _, child := range filters {
		if err := Check(child); err != nil {
			return err
		}
	}
	return nil
}

func checkField(kind Kind, field string) error {
	if strings.TrimSpace(field) == "" {
		return NewInvalidArgument(kind, "field required")
	}
	return nil
}

func checkEquals(f Equals) error {
	if err := checkField(KindEquals, f.Field); err != nil {
		return err
	}
	if f.Value == nil {
		return NewInvalidArgument(KindEquals, "value required for field %q", f.Field)
	}
	return nil
}

func checkBetween(f Between) error {
	if err := checkField(KindBetween, f.Field); err != nil {
		return err
	}
	if f.From == nil && f.To == nil {
		return NewInvalidArgument(KindBetween, "at least one bound required for field %q", f.Field)
	}
	return nil
}

func checkIn(f In) error {
	if err := checkField(KindIn, f.Field); err != nil {
		return err
	}
	if len(f.Values) == 0 {
		return NewInvalidArgument(KindIn, "value required for field %q", f.Field)
	}
	for i, v := range f.Values {
		if v == nil {
			return NewInvalidArgument(KindIn, "value %d of field %q is nil", i, f.Field)
		}
	}
	return nil
}

func checkLike(f Like) error {
	if err := checkField(KindLike, f.Field); err != nil {
		return err
	}
	if f.Mode < MatchExact || f.Mode > MatchAnywhere {
		return NewInvalidArgument(KindLike, "unknown match mode %d", int(f.Mode))
	}
	return nil
}

func checkFieldEquals(f FieldEquals) error {
	if err := checkField(KindFieldEquals, f.Field); err != nil {
		return err
	}
	if strings.TrimSpace(f.Other) == "" {
		return NewInvalidArgument(KindFieldEquals, "other field required")
	}
	if !fieldPath.MatchString(f.Other) {
		return NewInvalidArgument(KindFieldEquals, "other field %q must be a field path such as alias.field", f.Other)
	}
	return nil
}

func checkCoalesce(f Coalesce) error {
	if f.Default == nil {
		return NewInvalidArgument(KindCoalesce, "default value required")
	}
	switch f.Filter.(type) {
	case Equals, Between, In, Like:
		return Check(f.Filter)
	case nil:
		return NewInvalidArgument(KindCoalesce, "filter required")
	default:
		return NewInvalidArgument(KindCoalesce, "cannot wrap %s filter", f.Filter.Kind())
	}
}

func checkExists(f Exists) error {
	if strings.TrimSpace(f.Query.Entity) == "" {
		return NewInvalidArgument(KindExists, "sub-query entity required")
	}
	return Check(f.Query.Filter)
}

// Backend identifies a rendering target.
type Backend string

const (
	// BackendRelational is the textual relational query renderer.
	BackendRelational Backend = "relational"
	// BackendCriteria is the structured relational predicate builder.
	BackendCriteria Backend = "criteria"
	// BackendIndex is the search-index renderer.
	BackendIndex Backend = "index"
)

// Backends lists every rendering target.
var Backends = []Backend{BackendRelational, BackendCriteria, BackendIndex}

func (b Backend) mode() string {
	switch b {
	case BackendCriteria:
		return "criteria"
	case BackendIndex:
		return "index query"
	default:
		return "relational query"
	}
}

// Supports reports whether a filter kind can be rendered by a backend.
func Supports(kind Kind, backend Backend) bool {
	switch kind {
	case KindCoalesce:
		return backend == BackendRelational
	case KindExists:
		return backend == BackendRelational
	case KindFieldEquals:
		return backend != BackendIndex
	default:
		return true
	}
}

// ValidationResult contains the capability analysis of a filter tree.
type ValidationResult struct {
	// Supported maps each backend to whether the whole tree renders on it.
	Supported map[Backend]bool

	// Warnings lists each unsupported node and the backends rejecting it.
	Warnings []string
}

// Portable reports whether the tree renders on every backend.
func (r ValidationResult) Portable() bool {
	for _, ok := range r.Supported {
		if !ok {
			return false
		}
	}
	return true
}

// Validate walks the tree and reports which backends can render it.
// Callers use it to check capability before rendering; a tree that fails
// here fails the corresponding render with an unsupported error.
//
// Validate is a pure function with no side effects.
func Validate(f Filter) ValidationResult {
	v := &validator{
		supported: map[Backend]bool{},
		warnings:  []string{},
	}
	for _, b := range Backends {
		v.supported[b] = true
	}
	v.walk(f, "filter")
	return ValidationResult{Supported: v.supported, Warnings: v.warnings}
}

// validator accumulates warnings during traversal.
type validator struct {
	supported map[Backend]bool
	warnings  []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) walk(f Filter, path string) {
	if f == nil {
		return
	}
	var rejected []string
	for _, b := range Backends {
		if !Supports(f.Kind(), b) {
			v.supported[b] = false
			rejected = append(rejected, string(b))
		}
	}
	if len(rejected) > 0 {
		v.addWarning("%s: %s filter cannot be rendered by %s", path, f.Kind(), strings.Join(rejected, ", "))
	}

	switch node := f.(type) {
	case Not:
		v.walk(node.Filter, path+".not")
	case Coalesce:
		v.walk(node.Filter, path+".coalesce")
	case Exists:
		v.walk(node.Query.Filter, path+".exists")
	case And:
		for i, child := range node.Filters {
			v.walk(child, fmt.Sprintf("%s.and[%d]", path, i))
		}
	case Or:
		for i, child := range node.Filters {
			v.walk(child, fmt.Sprintf("%s.or[%d]", path, i))
		}
	}
}
