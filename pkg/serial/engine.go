package serial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/registry"
	"github.com/jdziat/simple-form-actions/pkg/security"
)

// Names under which the engine's own error types are bound, so that
// classifiers can be registered for them.
const (
	ImportErrorType     = "ImportError"
	InvocationErrorType = "InvocationError"
	PanicErrorType      = "PanicError"
)

// Engine exports results, imports fields and classifies errors.
type Engine struct {
	types       *registry.Hierarchy
	serializers *registry.TypeRegistry
	exceptions  *registry.ExceptionMap
	fallback    core.Serializer
	emptyAsNull bool
	strict      bool
}

// New builds an Engine. Missing builtin error types are bound into types,
// the hierarchy is frozen, then serializers and classifiers are registered
// in option order. Registration failures are ConfigurationErrors.
func New(types *registry.Hierarchy, opts ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt.Apply(cfg)
	}

	if !types.Frozen() {
		if err := bindBuiltins(types); err != nil {
			return nil, err
		}
		types.Freeze()
	}

	e := &Engine{
		types:       types,
		serializers: registry.New[core.Serializer](types),
		exceptions:  registry.New[core.Classifier](types),
		fallback:    cfg.fallback,
		emptyAsNull: cfg.emptyAsNull,
		strict:      cfg.strict,
	}
	if e.fallback == nil {
		e.fallback = MapSerializer{}
	}

	for _, s := range cfg.serializers {
		if s.ser == nil {
			return nil, core.Misconfigured(s.typeName, errors.New("nil serializer"))
		}
		if err := e.serializers.Register(s.typeName, s.ser); err != nil {
			return nil, err
		}
	}
	for _, x := range cfg.exceptions {
		if x.cls == nil {
			return nil, core.Misconfigured(x.typeName, errors.New("nil classifier"))
		}
		if err := e.exceptions.Register(x.typeName, x.cls); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// MustNew is like New but panics on error.
func MustNew(types *registry.Hierarchy, opts ...Option) *Engine {
	e, err := New(types, opts...)
	if err != nil {
		panic(fmt.Sprintf("actions: engine: %v", err))
	}
	return e
}

func bindBuiltins(types *registry.Hierarchy) error {
	builtins := []struct {
		t    reflect.Type
		name string
	}{
		{reflect.TypeFor[*core.ImportError](), ImportErrorType},
		{reflect.TypeFor[*core.InvocationError](), InvocationErrorType},
		{reflect.TypeFor[*core.PanicError](), PanicErrorType},
	}
	for _, b := range builtins {
		if _, ok := types.NameOf(b.t); ok {
			continue
		}
		if err := types.BindType(b.t, b.name); err != nil {
			return err
		}
	}
	return nil
}

// Types returns the engine's hierarchy.
func (e *Engine) Types() *registry.Hierarchy {
	return e.types
}

// Serializers returns the serializer registry.
func (e *Engine) Serializers() *registry.TypeRegistry {
	return e.serializers
}

// Exceptions returns the exception map.
func (e *Engine) Exceptions() *registry.ExceptionMap {
	return e.exceptions
}

// EmptyAsNullPolicy reports whether empty strings count as missing values.
func (e *Engine) EmptyAsNullPolicy() bool {
	return e.emptyAsNull
}

// Export converts value into a JSON-compatible wire value.
func (e *Engine) Export(ctx context.Context, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
	}

	if name, ok := e.types.NameOf(rv.Type()); ok {
		if ser, ok := e.serializers.Resolve(name); ok {
			return ser.Export(ctx, e, value)
		}
		if isObject(rv) {
			return e.exportTyped(ctx, name, value)
		}
	}

	switch v := value.(type) {
	case *orderedmap.OrderedMap[string, any]:
		return e.exportOrdered(ctx, v)
	case json.RawMessage, []byte:
		return v, nil
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			v, err := e.Export(ctx, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("actions: cannot export map with %s keys", rv.Type().Key())
		}
		return e.exportMap(ctx, rv)
	case reflect.Struct:
		return e.exportTyped(ctx, rv.Type().String(), value)
	case reflect.Pointer:
		if rv.Elem().Kind() == reflect.Struct {
			return e.exportTyped(ctx, rv.Type().Elem().String(), value)
		}
		return e.Export(ctx, rv.Elem().Interface())
	}

	return value, nil
}

// isObject reports whether rv is a struct or a pointer to one. Bound types
// of any other kind without a serializer export structurally.
func isObject(rv reflect.Value) bool {
	if rv.Kind() == reflect.Pointer {
		return rv.Type().Elem().Kind() == reflect.Struct
	}
	return rv.Kind() == reflect.Struct
}

func (e *Engine) exportTyped(ctx context.Context, name string, value any) (any, error) {
	ser, err := e.serializerFor(name)
	if err != nil {
		return nil, err
	}
	return ser.Export(ctx, e, value)
}

func (e *Engine) exportOrdered(ctx context.Context, m *orderedmap.OrderedMap[string, any]) (any, error) {
	out := orderedmap.New[string, any]()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		v, err := e.Export(ctx, pair.Value)
		if err != nil {
			return nil, err
		}
		out.Set(pair.Key, v)
	}
	return out, nil
}

func (e *Engine) exportMap(ctx context.Context, rv reflect.Value) (any, error) {
	keys := make([]string, 0, rv.Len())
	byKey := make(map[string]reflect.Value, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
		byKey[k.String()] = rv.MapIndex(k)
	}
	sort.Strings(keys)

	out := orderedmap.New[string, any]()
	for _, k := range keys {
		v, err := e.Export(ctx, byKey[k].Interface())
		if err != nil {
			return nil, err
		}
		out.Set(k, v)
	}
	return out, nil
}

// serializerFor resolves a serializer, applying the fallback policy.
func (e *Engine) serializerFor(name string) (core.Serializer, error) {
	if ser, ok := e.serializers.Resolve(name); ok {
		return ser, nil
	}
	if e.strict {
		return nil, core.Misconfigured(name, core.ErrNoSerializer)
	}
	return e.fallback, nil
}

// Import converts a raw request value for the given parameter. Conversion
// failures are returned as *core.ImportError; an undeclared parameter type
// or, in strict mode, a missing serializer is a ConfigurationError.
func (e *Engine) Import(ctx context.Context, p core.Param, raw any) (any, error) {
	if p.Type == "" {
		if err := security.ValidateFieldValue(raw); err != nil {
			return nil, &core.ImportError{Field: p.Name, Err: err}
		}
		return raw, nil
	}

	canon, ok := e.types.Canonical(p.Type)
	if !ok {
		return nil, core.Misconfigured(p.Type, core.ErrUnknownType)
	}

	if err := security.ValidateFieldValue(raw); err != nil {
		return nil, &core.ImportError{Field: p.Name, Type: canon, Err: err}
	}

	if p.Nullable && e.isNull(raw) {
		return nil, nil
	}

	ser, err := e.serializerFor(canon)
	if err != nil {
		return nil, err
	}

	v, err := ser.Import(ctx, canon, raw)
	if err != nil {
		return nil, &core.ImportError{Field: p.Name, Type: canon, Err: err}
	}
	return v, nil
}

func (e *Engine) isNull(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok && e.emptyAsNull {
		return s == ""
	}
	return false
}

// ClassifyError matches err, then each error it wraps, against the
// exception map. The first match produces the classified body. When nothing
// matches the result is an *core.UnclassifiedError wrapping err.
func (e *Engine) ClassifyError(ctx context.Context, err error) (*core.Classified, error) {
	if err == nil {
		return nil, errors.New("actions: classify nil error")
	}

	for link := err; link != nil; link = errors.Unwrap(link) {
		name, ok := e.types.NameOfValue(link)
		if !ok {
			continue
		}
		cls, ok := e.exceptions.Resolve(name)
		if !ok {
			continue
		}
		return e.normalize(ctx, cls(link))
	}

	return nil, &core.UnclassifiedError{Err: err}
}

func (e *Engine) normalize(ctx context.Context, out any) (*core.Classified, error) {
	status := 0
	body := out
	switch r := out.(type) {
	case core.Response:
		status, body = r.Status, r.Body
	case *core.Response:
		if r != nil {
			status, body = r.Status, r.Body
		}
	}
	explicit := core.ValidStatus(status)
	if !explicit {
		status = core.StatusInternal
	}

	exported, err := e.Export(ctx, body)
	if err != nil {
		return nil, err
	}
	return &core.Classified{Status: status, Body: exported, Explicit: explicit}, nil
}
