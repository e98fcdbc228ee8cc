package binder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/jdziat/simple-form-actions/pkg/core"
	intctx "github.com/jdziat/simple-form-actions/pkg/internal/context"
	"github.com/jdziat/simple-form-actions/pkg/security"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Func holds metadata about an operation or constructor function.
type Func struct {
	Name        string
	Params      []core.Param
	Fn          reflect.Value
	HasReceiver bool
	HasContext  bool
}

// NewOperation wraps a method expression such as (*Accounts).Create.
// The function must have signature:
//
//	func(recv R, [ctx context.Context,] args...) error
//	func(recv R, [ctx context.Context,] args...) (T, error)
//
// with one argument per declared parameter.
func NewOperation(name string, fn any, params ...core.Param) (*Func, error) {
	if err := security.ValidateMethodName(name); err != nil {
		return nil, core.Misconfigured(name, err)
	}
	return newFunc(name, fn, true, params)
}

// NewConstructor wraps a function building a target instance from its
// declared parameters: func([ctx context.Context,] args...) (R, error).
func NewConstructor(fn any, params ...core.Param) (*Func, error) {
	f, err := newFunc("new", fn, false, params)
	if err != nil {
		return nil, err
	}
	if f.Fn.Type().NumOut() != 2 {
		return nil, core.Misconfigured("new", fmt.Errorf("constructor must return (T, error)"))
	}
	return f, nil
}

func newFunc(name string, fn any, receiver bool, params []core.Param) (*Func, error) {
	if fn == nil {
		return nil, core.Misconfigured(name, fmt.Errorf("function cannot be nil"))
	}

	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return nil, core.Misconfigured(name, fmt.Errorf("must be a function"))
	}
	if fnVal.IsNil() {
		return nil, core.Misconfigured(name, fmt.Errorf("function cannot be nil"))
	}

	fnType := fnVal.Type()
	f := &Func{Name: name, Params: params, Fn: fnVal, HasReceiver: receiver}

	idx := 0
	if receiver {
		if fnType.NumIn() < 1 {
			return nil, core.Misconfigured(name, fmt.Errorf("operation must take a receiver"))
		}
		idx = 1
	}
	if idx < fnType.NumIn() && fnType.In(idx).Implements(contextType) {
		f.HasContext = true
		idx++
	}
	if fnType.IsVariadic() || fnType.NumIn()-idx != len(params) {
		return nil, core.Misconfigured(name, fmt.Errorf("function takes %d arguments, %d parameters declared", fnType.NumIn()-idx, len(params)))
	}

	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if p.Name == "" {
			return nil, core.Misconfigured(name, fmt.Errorf("parameter without name"))
		}
		if _, dup := seen[p.Name]; dup {
			return nil, core.Misconfigured(name, fmt.Errorf("duplicate parameter %q", p.Name))
		}
		seen[p.Name] = struct{}{}
	}

	switch fnType.NumOut() {
	case 1:
		if !isErrorResult(fnType.Out(0)) {
			return nil, core.Misconfigured(name, fmt.Errorf("must return error"))
		}
	case 2:
		if !isErrorResult(fnType.Out(1)) {
			return nil, core.Misconfigured(name, fmt.Errorf("must return (T, error)"))
		}
	default:
		return nil, core.Misconfigured(name, fmt.Errorf("must return error or (T, error)"))
	}

	return f, nil
}

// isErrorResult reports whether t implements error and can be nil.
func isErrorResult(t reflect.Type) bool {
	if !t.Implements(errorType) {
		return false
	}
	return t.Kind() == reflect.Interface || t.Kind() == reflect.Pointer
}

// argOffset is the index of the first declared parameter in the Go signature.
func (f *Func) argOffset() int {
	n := 0
	if f.HasReceiver {
		n++
	}
	if f.HasContext {
		n++
	}
	return n
}

// Call invokes the function. recv is ignored for constructors. Output written
// through Output(ctx) during the call fails it with core.ErrUnexpectedOutput;
// a panic is recovered into a *core.PanicError. Both are wrapped in
// *core.InvocationError. Errors returned by the function itself are passed
// through unchanged.
func (f *Func) Call(ctx context.Context, recv any, args []any) (result any, err error) {
	if !f.Fn.IsValid() || f.Fn.IsNil() {
		return nil, core.Misconfigured(f.Name, fmt.Errorf("function is nil or invalid"))
	}
	if len(args) != len(f.Params) {
		return nil, core.Misconfigured(f.Name, fmt.Errorf("got %d arguments, want %d", len(args), len(f.Params)))
	}

	fnType := f.Fn.Type()
	in := make([]reflect.Value, 0, fnType.NumIn())

	if f.HasReceiver {
		rv, err := coerce(fnType.In(0), recv)
		if err != nil {
			return nil, core.Misconfigured(f.Name, fmt.Errorf("receiver: %w", err))
		}
		in = append(in, rv)
	}

	var out bytes.Buffer
	callCtx := intctx.WithOutput(ctx, &out)
	if f.HasContext {
		in = append(in, reflect.ValueOf(callCtx))
	}

	offset := f.argOffset()
	for i, a := range args {
		av, err := coerce(fnType.In(offset+i), a)
		if err != nil {
			return nil, core.Misconfigured(f.Name, fmt.Errorf("parameter %q: %w", f.Params[i].Name, err))
		}
		in = append(in, av)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &core.InvocationError{Method: f.Name, Err: &core.PanicError{Value: r}}
		}
	}()

	results := f.Fn.Call(in)

	errVal := results[len(results)-1]
	if !errVal.IsNil() {
		return nil, errVal.Interface().(error)
	}
	if out.Len() > 0 {
		return nil, &core.InvocationError{Method: f.Name, Err: core.ErrUnexpectedOutput}
	}
	if len(results) == 2 && results[0].CanInterface() {
		return results[0].Interface(), nil
	}
	return nil, nil
}

// coerce converts an imported value to the Go parameter type. nil becomes the
// zero value; named types convert from their underlying representation.
func coerce(t reflect.Type, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()) {
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)
		return p, nil
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", rv.Type(), t)
}

// Output returns the writer that collects stray output during an invocation.
// Operations must return their results; anything written here fails the call.
func Output(ctx context.Context) io.Writer {
	return intctx.GetOutput(ctx)
}
