package registry

import (
	"github.com/jdziat/simple-form-actions/pkg/core"
)

// Entry is a single (type name, handler) association.
type Entry[H any] struct {
	Type    string
	Handler H
}

// Registry maps type names to handlers in insertion order.
type Registry[H any] struct {
	types   *Hierarchy
	entries []Entry[H]
	keys    map[string]struct{}
}

// TypeRegistry resolves serializers by declared type.
type TypeRegistry = Registry[core.Serializer]

// ExceptionMap resolves error classifiers by declared error type.
type ExceptionMap = Registry[core.Classifier]

// New creates an empty registry over the given hierarchy.
func New[H any](types *Hierarchy) *Registry[H] {
	return &Registry[H]{
		types: types,
		keys:  make(map[string]struct{}),
	}
}

// Register appends an entry. The key is normalized to its canonical name; an
// unknown name or a second entry for the same canonical name is a
// ConfigurationError.
func (r *Registry[H]) Register(typeName string, handler H) error {
	canon, ok := r.types.Canonical(typeName)
	if !ok {
		return core.Misconfigured(typeName, core.ErrUnknownType)
	}
	if _, dup := r.keys[canon]; dup {
		return core.Misconfigured(typeName, core.ErrDuplicateEntry)
	}
	r.keys[canon] = struct{}{}
	r.entries = append(r.entries, Entry[H]{Type: canon, Handler: handler})
	return nil
}

// Resolve returns the first entry whose key is typeName or one of its
// ancestors.
func (r *Registry[H]) Resolve(typeName string) (H, bool) {
	e, ok := r.ResolveEntry(typeName)
	return e.Handler, ok
}

// ResolveEntry is Resolve returning the matched key as well.
func (r *Registry[H]) ResolveEntry(typeName string) (Entry[H], bool) {
	if _, ok := r.types.Canonical(typeName); ok {
		for _, e := range r.entries {
			if r.types.IsA(typeName, e.Type) {
				return e, true
			}
		}
	}
	var zero Entry[H]
	return zero, false
}

// Entries returns a snapshot of the registered entries in insertion order.
func (r *Registry[H]) Entries() []Entry[H] {
	return append([]Entry[H](nil), r.entries...)
}

// Len returns the number of entries.
func (r *Registry[H]) Len() int {
	return len(r.entries)
}

// Types returns the hierarchy the registry resolves against.
func (r *Registry[H]) Types() *Hierarchy {
	return r.types
}
