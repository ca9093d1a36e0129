// Package fieldmap maps domain entities to relational tables and their
// fields to search-index field names.
package fieldmap

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
)

// DefaultPrimaryKey is used when an entity declares none.
const DefaultPrimaryKey = "id"

// Field maps one domain field.
type Field struct {
	Name  string `json:"-" yaml:"-"`
	Index string `json:"index" yaml:"index"`
}

// Entity describes how one domain entity is stored and indexed.
type Entity struct {
	Name       string           `json:"-" yaml:"-"`
	Table      string           `json:"table,omitempty" yaml:"table,omitempty"`
	PrimaryKey string           `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Fields     map[string]Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// NotFoundError reports an unknown entity, or an unknown field of a known
// entity when Field is set.
type NotFoundError struct {
	Entity string
	Field  string
}

func (e *NotFoundError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field %q of entity %q not registered", e.Field, e.Entity)
	}
	return fmt.Sprintf("entity %q not registered", e.Entity)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Registry resolves tables, primary keys and index fields.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]Entity
}

// New creates a registry from entities keyed by name.
func New(entities map[string]Entity) *Registry {
	r := &Registry{entities: make(map[string]Entity, len(entities))}
	for name, e := range entities {
		r.Add(name, e)
	}
	return r
}

// Add registers or replaces an entity.
func (r *Registry) Add(name string, e Entity) {
	e.Name = name
	fields := make(map[string]Field, len(e.Fields))
	for field, f := range e.Fields {
		f.Name = field
		if f.Index == "" {
			f.Index = field
		}
		fields[field] = f
	}
	e.Fields = fields

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[name] = e
}

// Entity returns the registered entity.
func (r *Registry) Entity(name string) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[name]
	if !ok {
		return Entity{}, &NotFoundError{Entity: name}
	}
	return e, nil
}

// Names returns the registered entity names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entities))
}

// Table returns the entity's table, defaulting to the plural of its
// lower-cased name.
func (r *Registry) Table(entity string) (string, error) {
	e, err := r.Entity(entity)
	if err != nil {
		return "", err
	}
	if e.Table != "" {
		return e.Table, nil
	}
	return inflection.Plural(strings.ToLower(entity)), nil
}

// PrimaryKey returns the entity's primary-key field.
func (r *Registry) PrimaryKey(entity string) (string, error) {
	e, err := r.Entity(entity)
	if err != nil {
		return "", err
	}
	if e.PrimaryKey != "" {
		return e.PrimaryKey, nil
	}
	return DefaultPrimaryKey, nil
}

// IndexField returns the index field backing a domain field. The primary key
// maps to itself unless declared otherwise.
func (r *Registry) IndexField(entity, field string) (string, error) {
	e, err := r.Entity(entity)
	if err != nil {
		return "", err
	}
	if f, ok := e.Fields[field]; ok {
		return f.Index, nil
	}
	pk := e.PrimaryKey
	if pk == "" {
		pk = DefaultPrimaryKey
	}
	if field == pk {
		return field, nil
	}
	return "", &NotFoundError{Entity: entity, Field: field}
}
