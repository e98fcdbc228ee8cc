package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jdziat/simple-form-actions/pkg/binder"
	"github.com/jdziat/simple-form-actions/pkg/core"
	intctx "github.com/jdziat/simple-form-actions/pkg/internal/context"
	"github.com/jdziat/simple-form-actions/pkg/serial"
)

// Outcome is the result of one dispatched action.
type Outcome struct {
	RequestID string
	Service   string
	Method    string
	// Status is one of core.StatusSuccess, core.StatusBadSyntax or
	// core.StatusInternal.
	Status int
	// Body is the exported return value, the field error map or the
	// classified error body.
	Body any
	// FieldValues holds the submitted public field values for echo-back.
	FieldValues *orderedmap.OrderedMap[string, any]
}

// Initializer produces the target instance for Call.
type Initializer func(ctx context.Context) (any, error)

// Dispatcher binds, invokes and classifies actions.
type Dispatcher struct {
	engine             *serial.Engine
	logger             *slog.Logger
	constructionStatus int

	mu        sync.RWMutex
	onOutcome []func(context.Context, *Outcome)
	onError   []func(context.Context, error)
}

// New creates a Dispatcher over engine.
func New(engine *serial.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:             engine,
		logger:             slog.Default(),
		constructionStatus: core.StatusBadSyntax,
	}
	for _, opt := range opts {
		opt.Apply(d)
	}
	return d
}

// Engine returns the serialization engine.
func (d *Dispatcher) Engine() *serial.Engine {
	return d.engine
}

// OnOutcome registers a hook called for every outcome.
func (d *Dispatcher) OnOutcome(fn func(context.Context, *Outcome)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onOutcome = append(d.onOutcome, fn)
}

// OnError registers a hook called when dispatch fails without an outcome:
// unclassified errors and configuration errors.
func (d *Dispatcher) OnError(fn func(context.Context, error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = append(d.onError, fn)
}

// Invoke runs method on svc. Operation fields come from fields; constructor
// arguments come from instance (normally the query string).
//
// Field import failures produce a 400 outcome without constructing the
// target. Construction failures are classified with the construction status.
// Operation failures are classified with status 500 unless the classifier
// chooses otherwise. Unclassified errors are returned, never turned into an
// outcome.
func (d *Dispatcher) Invoke(ctx context.Context, svc *Service, method string, instance, fields core.FieldSource) (*Outcome, error) {
	ctx, out, start := d.begin(ctx, svc.Name(), method)

	outcome, err := d.invoke(ctx, svc, method, instance, fields, out)
	return d.finish(ctx, outcome, err, start)
}

func (d *Dispatcher) invoke(ctx context.Context, svc *Service, method string, instance, fields core.FieldSource, out *Outcome) (*Outcome, error) {
	op, err := svc.lookup(method)
	if err != nil {
		return nil, err
	}

	b, err := binder.Bind(ctx, d.engine, op.Params, fields)
	if err != nil {
		return nil, err
	}
	out.FieldValues = b.FieldValues
	if !b.OK() {
		out.Status, out.Body = core.StatusBadSyntax, b.FieldErrors
		return out, nil
	}

	target, err := d.construct(ctx, svc, instance)
	if err != nil {
		var cfgErr *core.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		c, cerr := d.engine.ClassifyError(ctx, err)
		if cerr != nil {
			return nil, cerr
		}
		out.Status, out.Body = c.Status, c.Body
		if !c.Explicit {
			out.Status = d.constructionStatus
		}
		return out, nil
	}

	return d.run(ctx, op, target, b.Args, out)
}

// construct imports the constructor arguments and builds the target.
func (d *Dispatcher) construct(ctx context.Context, svc *Service, instance core.FieldSource) (any, error) {
	args := make([]any, 0, len(svc.ctor.Params))
	for _, p := range svc.ctor.Params {
		var raw any
		if instance != nil {
			raw, _ = instance.Lookup(p.Name)
		}
		v, err := d.engine.Import(ctx, p, raw)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return svc.ctor.Call(ctx, nil, args)
}

// Call runs op on the instance produced by init. Initializer failures are
// classified like operation failures.
func (d *Dispatcher) Call(ctx context.Context, init Initializer, op *binder.Func, fields core.FieldSource) (*Outcome, error) {
	ctx, out, start := d.begin(ctx, "", op.Name)

	outcome, err := d.call(ctx, init, op, fields, out)
	return d.finish(ctx, outcome, err, start)
}

func (d *Dispatcher) call(ctx context.Context, init Initializer, op *binder.Func, fields core.FieldSource, out *Outcome) (*Outcome, error) {
	target, err := init(ctx)
	if err != nil {
		return d.classify(ctx, err, out)
	}

	b, err := binder.Bind(ctx, d.engine, op.Params, fields)
	if err != nil {
		return nil, err
	}
	out.FieldValues = b.FieldValues
	if !b.OK() {
		out.Status, out.Body = core.StatusBadSyntax, b.FieldErrors
		return out, nil
	}

	return d.run(ctx, op, target, b.Args, out)
}

func (d *Dispatcher) run(ctx context.Context, op *binder.Func, target any, args []any, out *Outcome) (*Outcome, error) {
	result, err := op.Call(ctx, target, args)
	if err != nil {
		var cfgErr *core.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return d.classify(ctx, err, out)
	}

	body, err := d.engine.Export(ctx, result)
	if err != nil {
		return nil, err
	}
	out.Status, out.Body = core.StatusSuccess, body
	return out, nil
}

func (d *Dispatcher) classify(ctx context.Context, err error, out *Outcome) (*Outcome, error) {
	c, cerr := d.engine.ClassifyError(ctx, err)
	if cerr != nil {
		return nil, cerr
	}
	out.Status, out.Body = c.Status, c.Body
	return out, nil
}

func (d *Dispatcher) begin(ctx context.Context, service, method string) (context.Context, *Outcome, time.Time) {
	requestID := uuid.New().String()
	if cc := intctx.GetCallContext(ctx); cc != nil && cc.RequestID != "" {
		requestID = cc.RequestID
	}
	ctx = intctx.WithCallContext(ctx, &intctx.CallContext{
		RequestID: requestID,
		Service:   service,
		Method:    method,
	})

	out := &Outcome{
		RequestID:   requestID,
		Service:     service,
		Method:      method,
		FieldValues: orderedmap.New[string, any](),
	}
	d.logger.Debug("dispatching action", "request_id", requestID, "service", service, "method", method)
	return ctx, out, time.Now()
}

func (d *Dispatcher) finish(ctx context.Context, out *Outcome, err error, start time.Time) (*Outcome, error) {
	cc := intctx.GetCallContext(ctx)
	latency := time.Since(start).Milliseconds()

	d.mu.RLock()
	onOutcome, onError := d.onOutcome, d.onError
	d.mu.RUnlock()

	if err != nil {
		d.logger.Warn("action failed", "request_id", cc.RequestID, "service", cc.Service, "method", cc.Method,
			"latency_ms", latency, "error", err)
		for _, fn := range onError {
			fn(ctx, err)
		}
		return nil, err
	}

	d.logger.Info("action dispatched", "request_id", cc.RequestID, "service", cc.Service, "method", cc.Method,
		"status", out.Status, "latency_ms", latency)
	for _, fn := range onOutcome {
		fn(ctx, out)
	}
	return out, nil
}

// RequestID returns the id of the action being dispatched, or "".
func RequestID(ctx context.Context) string {
	if cc := intctx.GetCallContext(ctx); cc != nil {
		return cc.RequestID
	}
	return ""
}
