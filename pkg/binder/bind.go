package binder

import (
	"context"
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

// Importer converts raw values and classifies import failures.
// *serial.Engine implements it.
type Importer interface {
	Import(ctx context.Context, p core.Param, raw any) (any, error)
	ClassifyError(ctx context.Context, err error) (*core.Classified, error)
}

// Binding is the outcome of binding request fields to parameters.
type Binding struct {
	// Args is the argument list in parameter order. It is nil whenever
	// FieldErrors is non-empty.
	Args []any
	// FieldValues records submitted public values for echo-back. Values that
	// arrived under the private name are recorded as nil.
	FieldValues *orderedmap.OrderedMap[string, any]
	// FieldErrors maps parameter names to classified error bodies.
	FieldErrors *orderedmap.OrderedMap[string, any]
}

// OK reports whether every field imported.
func (b *Binding) OK() bool {
	return b.FieldErrors.Len() == 0
}

// Bind imports one value per parameter from src. Import failures are
// classified and collected rather than returned; the returned error is
// reserved for failures that must not become responses (configuration
// errors, unclassified import errors). A nil src has no fields.
func Bind(ctx context.Context, imp Importer, params []core.Param, src core.FieldSource) (*Binding, error) {
	if src == nil {
		src = core.Fields(nil)
	}
	b := &Binding{
		Args:        make([]any, 0, len(params)),
		FieldValues: orderedmap.New[string, any](),
		FieldErrors: orderedmap.New[string, any](),
	}

	for _, p := range params {
		raw, present := src.Lookup(p.Name)
		if present {
			b.FieldValues.Set(p.Name, raw)
		} else if raw, present = src.Lookup(core.PrivateName(p.Name)); present {
			b.FieldValues.Set(p.Name, nil)
		}

		v, err := imp.Import(ctx, p, raw)
		if err != nil {
			var importErr *core.ImportError
			if !errors.As(err, &importErr) {
				return nil, err
			}
			classified, cerr := imp.ClassifyError(ctx, err)
			if cerr != nil {
				return nil, cerr
			}
			b.FieldErrors.Set(p.Name, classified.Body)
			continue
		}
		b.Args = append(b.Args, v)
	}

	if !b.OK() {
		b.Args = nil
	}
	return b, nil
}
