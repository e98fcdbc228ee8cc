package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jdziat/simple-form-actions/pkg/continuation"
	"github.com/jdziat/simple-form-actions/pkg/form"
)

// CreateForm builds the view model for a form posting to method on the
// svc instance described by instanceArgs. The constructor arguments are
// exported and appended to baseURL as query parameters; together with the
// service name, the method and differentiator they make up the form
// signature. query is the current page query and may carry a continuation
// token for this form.
func (d *Dispatcher) CreateForm(ctx context.Context, svc *Service, baseURL string, instanceArgs map[string]any, method, differentiator string, query url.Values) (*form.Form, error) {
	op, err := svc.lookup(method)
	if err != nil {
		return nil, err
	}

	params := svc.ConstructorParams()
	rawArgs := make([]any, 0, len(params))
	pairs := make([]string, 0, len(params))
	for _, p := range params {
		v, err := d.engine.Export(ctx, instanceArgs[p.Name])
		if err != nil {
			return nil, fmt.Errorf("actions: export constructor argument %s: %w", p.Name, err)
		}
		rawArgs = append(rawArgs, v)
		pairs = append(pairs, url.QueryEscape(p.Name)+"="+url.QueryEscape(queryValue(v)))
	}

	sig, err := continuation.Signature(svc.Name(), rawArgs, method, differentiator)
	if err != nil {
		return nil, err
	}

	return form.New(d.engine, sig, withParams(baseURL, pairs), op.Params, query), nil
}

func queryValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func withParams(baseURL string, pairs []string) string {
	if len(pairs) == 0 {
		return baseURL
	}
	base, query, hasQuery := strings.Cut(baseURL, "?")
	if hasQuery && query != "" {
		return base + "?" + query + "&" + strings.Join(pairs, "&")
	}
	return base + "?" + strings.Join(pairs, "&")
}
