package registry

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/security"
)

// Hierarchy records declared type names, their ancestors and the Go types
// bound to them. Declarations are not safe for concurrent use; once frozen a
// Hierarchy is read-only and may be shared freely.
type Hierarchy struct {
	// ancestors holds the transitive closure of strict ancestors per name.
	ancestors map[string]map[string]struct{}
	aliases   map[string]string
	byType    map[reflect.Type]string
	order     []string
	frozen    bool
}

// NewHierarchy creates an empty hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		ancestors: make(map[string]map[string]struct{}),
		aliases:   make(map[string]string),
		byType:    make(map[reflect.Type]string),
	}
}

// Declare adds a type name that also satisfies the given ancestors.
// Ancestors must already be declared; the closure is computed here so that
// lookups never walk the graph.
func (h *Hierarchy) Declare(name string, ancestors ...string) error {
	if h.frozen {
		return core.Misconfigured(name, core.ErrFrozen)
	}
	if err := security.ValidateTypeName(name); err != nil {
		return core.Misconfigured(name, err)
	}
	if _, ok := h.Canonical(name); ok {
		return core.Misconfigured(name, core.ErrDuplicateEntry)
	}

	closure := make(map[string]struct{})
	for _, a := range ancestors {
		canon, ok := h.Canonical(a)
		if !ok {
			return core.Misconfigured(name, fmt.Errorf("ancestor %q: %w", a, core.ErrUnknownType))
		}
		closure[canon] = struct{}{}
		for up := range h.ancestors[canon] {
			closure[up] = struct{}{}
		}
	}

	h.ancestors[name] = closure
	h.order = append(h.order, name)
	return nil
}

// MustDeclare is like Declare but panics on error.
func (h *Hierarchy) MustDeclare(name string, ancestors ...string) {
	if err := h.Declare(name, ancestors...); err != nil {
		panic(err)
	}
}

// Alias makes alias resolve to the declared name.
func (h *Hierarchy) Alias(alias, name string) error {
	if h.frozen {
		return core.Misconfigured(alias, core.ErrFrozen)
	}
	if err := security.ValidateTypeName(alias); err != nil {
		return core.Misconfigured(alias, err)
	}
	if _, ok := h.Canonical(alias); ok {
		return core.Misconfigured(alias, core.ErrDuplicateEntry)
	}
	canon, ok := h.Canonical(name)
	if !ok {
		return core.Misconfigured(name, core.ErrUnknownType)
	}
	h.aliases[alias] = canon
	return nil
}

// Bind declares name (unless it already exists) and binds the Go type T to
// it, so that values of type T (or *T) resolve to name at runtime.
func Bind[T any](h *Hierarchy, name string, ancestors ...string) error {
	return h.BindType(reflect.TypeFor[T](), name, ancestors...)
}

// MustBind is like Bind but panics on error.
func MustBind[T any](h *Hierarchy, name string, ancestors ...string) {
	if err := Bind[T](h, name, ancestors...); err != nil {
		panic(err)
	}
}

// BindType is the reflect.Type form of Bind.
func (h *Hierarchy) BindType(t reflect.Type, name string, ancestors ...string) error {
	if h.frozen {
		return core.Misconfigured(name, core.ErrFrozen)
	}
	if t == nil {
		return core.Misconfigured(name, fmt.Errorf("nil type"))
	}
	if prev, ok := h.byType[t]; ok {
		return core.Misconfigured(name, fmt.Errorf("%s already bound to %q: %w", t, prev, core.ErrDuplicateEntry))
	}

	canon, ok := h.Canonical(name)
	if !ok {
		if err := h.Declare(name, ancestors...); err != nil {
			return err
		}
		canon = name
	} else if len(ancestors) > 0 {
		return core.Misconfigured(name, core.ErrDuplicateEntry)
	}

	h.byType[t] = canon
	return nil
}

// Freeze forbids further declarations.
func (h *Hierarchy) Freeze() {
	h.frozen = true
}

// Frozen reports whether Freeze has been called.
func (h *Hierarchy) Frozen() bool {
	return h.frozen
}

// Canonical resolves aliases and reports whether name is known.
func (h *Hierarchy) Canonical(name string) (string, bool) {
	if target, ok := h.aliases[name]; ok {
		return target, true
	}
	if _, ok := h.ancestors[name]; ok {
		return name, true
	}
	return "", false
}

// Known reports whether name (or an alias of it) was declared.
func (h *Hierarchy) Known(name string) bool {
	_, ok := h.Canonical(name)
	return ok
}

// IsA reports whether name equals ancestor or strictly descends from it.
func (h *Hierarchy) IsA(name, ancestor string) bool {
	n, ok := h.Canonical(name)
	if !ok {
		return false
	}
	a, ok := h.Canonical(ancestor)
	if !ok {
		return false
	}
	if n == a {
		return true
	}
	_, ok = h.ancestors[n][a]
	return ok
}

// Ancestors returns the strict ancestors of name, sorted.
func (h *Hierarchy) Ancestors(name string) []string {
	n, ok := h.Canonical(name)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(h.ancestors[n]))
	for a := range h.ancestors[n] {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Names returns the declared names in declaration order.
func (h *Hierarchy) Names() []string {
	return append([]string(nil), h.order...)
}

// NameOf returns the name bound to t. Pointer types fall back to their
// element type.
func (h *Hierarchy) NameOf(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	if name, ok := h.byType[t]; ok {
		return name, true
	}
	if t.Kind() == reflect.Pointer {
		if name, ok := h.byType[t.Elem()]; ok {
			return name, true
		}
	}
	return "", false
}

// NameOfValue is NameOf for the dynamic type of v.
func (h *Hierarchy) NameOfValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	return h.NameOf(reflect.TypeOf(v))
}
