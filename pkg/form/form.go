package form

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jdziat/simple-form-actions/pkg/continuation"
	"github.com/jdziat/simple-form-actions/pkg/core"
)

// FieldView is what a renderer needs to draw one input.
type FieldView struct {
	Name string
	// InputName is the public input name; its value is echoed back after a
	// redirect.
	InputName string
	// PrivateInputName is accepted on submit but never echoed back.
	PrivateInputName string
	Type             string
	Value            any
	Error            any
	HasError         bool
}

// Form is the view model of one action form.
type Form struct {
	exporter  core.Exporter
	signature string
	url       string
	params    []core.Param
	declared  map[string]core.Param
	rendered  map[string]struct{}

	payload     *continuation.Payload
	fieldErrors map[string]any
	rejected    bool
}

// New builds a form for the given parameters. endpoint may be empty, in which
// case URL returns "". A continuation token in query is honored only when
// its signature matches.
func New(x core.Exporter, signature, endpoint string, params []core.Param, query url.Values) *Form {
	f := &Form{
		exporter:  x,
		signature: signature,
		params:    params,
		declared:  make(map[string]core.Param, len(params)),
		rendered:  make(map[string]struct{}, len(params)),
	}
	if endpoint != "" {
		f.url = withRedirect(endpoint, signature)
	}
	for _, p := range params {
		f.declared[p.Name] = p
	}

	if token := query.Get(continuation.QueryKey); token != "" {
		if p, ok := continuation.Decode(token, signature); ok {
			f.payload = p
			if p.Status == core.StatusBadSyntax {
				// Field error bodies are keyed by parameter name. Any other
				// 400 body is a construction failure for the whole form.
				if err := json.Unmarshal(p.Data, &f.fieldErrors); err != nil {
					f.fieldErrors = nil
					f.rejected = true
				}
			}
		}
	}
	return f
}

func withRedirect(endpoint, signature string) string {
	base, query, hasQuery := strings.Cut(endpoint, "?")
	redirect := continuation.RedirectKey + "=" + url.QueryEscape(signature)
	if hasQuery && query != "" {
		return base + "?" + query + "&" + redirect
	}
	return base + "?" + redirect
}

// URL returns the action endpoint including the redirect signature.
func (f *Form) URL() string {
	return f.url
}

// Signature returns the signature identifying this form.
func (f *Form) Signature() string {
	return f.signature
}

// Status returns the status of the decoded outcome, or 0 when the page
// carries none.
func (f *Form) Status() int {
	if f.payload == nil {
		return 0
	}
	return f.payload.Status
}

// HasReturnValue reports whether the previous submission succeeded.
func (f *Form) HasReturnValue() bool {
	return f.payload != nil && f.payload.Status == core.StatusSuccess
}

// ReturnValue returns the exported result of the previous submission.
// A nil result is a valid return value; use HasReturnValue to distinguish.
func (f *Form) ReturnValue() (any, error) {
	var v any
	if err := f.ReturnValueInto(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// ReturnValueInto decodes the result of the previous submission into v.
func (f *Form) ReturnValueInto(v any) error {
	if !f.HasReturnValue() {
		return core.ErrNoReturnValue
	}
	return f.payload.Value(v)
}

// ActionError returns the classified error of a failed invocation, or of a
// 400 that carries no per-field errors, or nil.
func (f *Form) ActionError() any {
	if f.payload == nil {
		return nil
	}
	if f.payload.Status != core.StatusInternal && !f.rejected {
		return nil
	}
	var v any
	if err := f.payload.Value(&v); err != nil {
		return nil
	}
	return v
}

// FieldError returns the classified import error for a field, or nil.
func (f *Form) FieldError(name string) any {
	if f.fieldErrors == nil {
		return nil
	}
	return f.fieldErrors[name]
}

// FieldValues returns the values echoed from the previous submission.
func (f *Form) FieldValues() *orderedmap.OrderedMap[string, any] {
	if f.payload == nil {
		return orderedmap.New[string, any]()
	}
	return f.payload.FieldValues
}

// Field returns the view of a declared field. The echoed value from the
// previous submission takes precedence over initial, which is exported
// before use.
func (f *Form) Field(ctx context.Context, name string, initial any) (*FieldView, error) {
	p, ok := f.declared[name]
	if !ok {
		return nil, &core.UnknownFieldError{Field: name}
	}
	f.rendered[name] = struct{}{}

	view := &FieldView{
		Name:             name,
		InputName:        name,
		PrivateInputName: core.PrivateName(name),
		Type:             p.Type,
	}

	if v, present := f.FieldValues().Get(name); present {
		view.Value = v
	} else {
		v, err := f.exporter.Export(ctx, initial)
		if err != nil {
			return nil, fmt.Errorf("actions: export initial value of %s: %w", name, err)
		}
		view.Value = v
	}

	if errBody, present := f.fieldErrors[name]; present {
		view.Error = errBody
		view.HasError = true
	}
	return view, nil
}

// Fields returns views for every declared field in declaration order.
// initial supplies starting values by field name.
func (f *Form) Fields(ctx context.Context, initial map[string]any) ([]*FieldView, error) {
	views := make([]*FieldView, 0, len(f.params))
	for _, p := range f.params {
		v, err := f.Field(ctx, p.Name, initial[p.Name])
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Complete reports declared fields that were never rendered.
func (f *Form) Complete() error {
	var missing []string
	for _, p := range f.params {
		if _, ok := f.rendered[p.Name]; !ok {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("actions: unrendered form fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FromQuery builds a form from a request URL: the continuation token is read
// from its query string.
func FromQuery(x core.Exporter, signature, endpoint string, params []core.Param, u *url.URL) *Form {
	var q url.Values
	if u != nil {
		q = u.Query()
	}
	return New(x, signature, endpoint, params, q)
}
