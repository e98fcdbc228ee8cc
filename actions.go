// Package actions dispatches form posts and script requests to typed
// operations on application services.
//
// This is the main package users should import. It re-exports the public
// types from the internal pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Declare types and build the engine
//	types := actions.NewTypes()
//	actions.MustBind[Age](types, "Age")
//	actions.MustBind[*ValidationError](types, "ValidationError")
//	d, _ := actions.New(types,
//	    actions.WithSerializer("Age", actions.Value(ParseAge)),
//	    actions.WithException("ValidationError", actions.ErrorMessage),
//	)
//
//	// Describe the service and its methods
//	svc := actions.MustService("Accounts", NewAccounts, actions.Untyped("region")).
//	    MustRegister("create", (*Accounts).Create, actions.Untyped("name"), actions.Typed("age", "Age"))
//
//	// Serve it
//	http.Handle("/accounts/create", actions.Handler(d, svc, "create"))
//
//	// Render the form on a page
//	form, _ := d.CreateForm(ctx, svc, "/accounts/create", map[string]any{"region": "eu"}, "create", "", r.URL.Query())
package actions

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/jdziat/simple-form-actions/pkg/binder"
	"github.com/jdziat/simple-form-actions/pkg/continuation"
	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/dispatch"
	"github.com/jdziat/simple-form-actions/pkg/form"
	"github.com/jdziat/simple-form-actions/pkg/registry"
	"github.com/jdziat/simple-form-actions/pkg/respond"
	"github.com/jdziat/simple-form-actions/pkg/security"
	"github.com/jdziat/simple-form-actions/pkg/serial"
	"github.com/jdziat/simple-form-actions/pkg/serializers"
	"github.com/jdziat/simple-form-actions/pkg/storage"
)

// Type aliases
type (
	// Param describes one formal parameter of an operation or constructor.
	Param = core.Param

	// Serializer converts between a typed value and its wire representation.
	Serializer = core.Serializer

	// Exporter converts arbitrary values into wire values.
	Exporter = core.Exporter

	// Classifier turns an anticipated error into a response body.
	Classifier = core.Classifier

	// Response is a classifier result with an explicit status.
	Response = core.Response

	// FieldSource yields raw request values by field name.
	FieldSource = core.FieldSource

	// Fields is a FieldSource over a plain map.
	Fields = core.Fields

	// Types is the declared type hierarchy.
	Types = registry.Hierarchy

	// TypeRegistry maps type names to serializers.
	TypeRegistry = registry.TypeRegistry

	// ExceptionMap maps error type names to classifiers.
	ExceptionMap = registry.ExceptionMap

	// Engine exports results, imports fields and classifies errors.
	Engine = serial.Engine

	// EngineOption configures an Engine.
	EngineOption = serial.Option

	// MapSerializer is the default serializer for unregistered objects.
	MapSerializer = serial.MapSerializer

	// Dispatcher binds, invokes and classifies actions.
	Dispatcher = dispatch.Dispatcher

	// DispatchOption configures a Dispatcher.
	DispatchOption = dispatch.Option

	// Service describes an action target.
	Service = dispatch.Service

	// Outcome is the result of one dispatched action.
	Outcome = dispatch.Outcome

	// Initializer produces the target instance for Dispatcher.Call.
	Initializer = dispatch.Initializer

	// Config holds policy settings loaded from YAML.
	Config = dispatch.Config

	// Operation is a registered operation or constructor.
	Operation = binder.Func

	// Form is the view model of one action form.
	Form = form.Form

	// FieldView is what a renderer needs to draw one input.
	FieldView = form.FieldView

	// Payload is a decoded continuation token.
	Payload = continuation.Payload

	// HandlerOption configures an HTTP handler.
	HandlerOption = respond.Option

	// ErrorHandler answers a request whose action failed without an outcome.
	ErrorHandler = respond.ErrorHandler

	// Metrics counts emitted responses.
	Metrics = respond.Metrics

	// IdentityStore maps persistent objects to and from identity strings.
	IdentityStore = serializers.IdentityStore

	// StoreID carries persistent objects as their store identity.
	StoreID = serializers.StoreID

	// UnixTime carries time.Time as Unix seconds.
	UnixTime = serializers.UnixTime

	// CronSpec is a parsed cron expression.
	CronSpec = serializers.CronSpec

	// GormIdentityStore implements IdentityStore using GORM.
	GormIdentityStore = storage.GormIdentityStore

	// ConfigurationError reports registry or wiring misuse.
	ConfigurationError = core.ConfigurationError

	// ImportError reports that a single field failed to convert.
	ImportError = core.ImportError

	// InvocationError reports a failure raised while running an operation.
	InvocationError = core.InvocationError

	// PanicError carries a value recovered from a panicking operation.
	PanicError = core.PanicError

	// UnclassifiedError wraps an error that matched no classifier.
	UnclassifiedError = core.UnclassifiedError

	// UnknownFieldError is returned for fields an operation does not declare.
	UnknownFieldError = core.UnknownFieldError
)

// Status constants
const (
	StatusSuccess   = core.StatusSuccess
	StatusBadSyntax = core.StatusBadSyntax
	StatusInternal  = core.StatusInternal
)

// Security limits
const (
	MaxTypeNameLength     = security.MaxTypeNameLength
	MaxMethodNameLength   = security.MaxMethodNameLength
	MaxFieldValueSize     = security.MaxFieldValueSize
	MaxTokenSize          = security.MaxTokenSize
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// Error variables
var (
	ErrUnknownType      = core.ErrUnknownType
	ErrInvalidTypeName  = core.ErrInvalidTypeName
	ErrDuplicateEntry   = core.ErrDuplicateEntry
	ErrNoSerializer     = core.ErrNoSerializer
	ErrMapImport        = core.ErrMapImport
	ErrUnexpectedOutput = core.ErrUnexpectedOutput
	ErrNoReturnValue    = core.ErrNoReturnValue
	ErrUnknownMethod    = core.ErrUnknownMethod
	ErrFieldTooLarge    = core.ErrFieldTooLarge
	ErrTokenTooLarge    = core.ErrTokenTooLarge
	ErrModelNotFound    = storage.ErrModelNotFound
)

// NewTypes creates an empty type hierarchy.
func NewTypes() *Types {
	return registry.NewHierarchy()
}

// Bind binds Go type T to a declared type name.
func Bind[T any](types *Types, name string, ancestors ...string) error {
	return registry.Bind[T](types, name, ancestors...)
}

// MustBind is like Bind but panics on error.
func MustBind[T any](types *Types, name string, ancestors ...string) {
	registry.MustBind[T](types, name, ancestors...)
}

// NewEngine freezes types and builds a serialization engine.
func NewEngine(types *Types, opts ...EngineOption) (*Engine, error) {
	return serial.New(types, opts...)
}

// New builds an engine over types and returns a Dispatcher using it.
func New(types *Types, opts ...EngineOption) (*Dispatcher, error) {
	e, err := serial.New(types, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.New(e), nil
}

// NewDispatcher creates a Dispatcher over an existing engine.
func NewDispatcher(e *Engine, opts ...DispatchOption) *Dispatcher {
	return dispatch.New(e, opts...)
}

// NewService creates a service whose instances are built by ctor.
func NewService(name string, ctor any, params ...Param) (*Service, error) {
	return dispatch.NewService(name, ctor, params...)
}

// MustService is like NewService but panics on error.
func MustService(name string, ctor any, params ...Param) *Service {
	return dispatch.MustService(name, ctor, params...)
}

// NewOperation wraps a method expression for use with Dispatcher.Call.
func NewOperation(name string, fn any, params ...Param) (*Operation, error) {
	return binder.NewOperation(name, fn, params...)
}

// Handler serves method of svc over HTTP.
func Handler(d *Dispatcher, svc *Service, method string, opts ...HandlerOption) http.Handler {
	return respond.Handler(d, svc, method, opts...)
}

// LoadConfig reads policy settings from a YAML file.
func LoadConfig(path string) (*Config, error) {
	return dispatch.LoadConfig(path)
}

// Parameter declarations

// Untyped declares a parameter that receives the raw request value.
func Untyped(name string) Param {
	return core.Untyped(name)
}

// Typed declares a parameter imported through the serializer for typeName.
func Typed(name, typeName string) Param {
	return core.Typed(name, typeName)
}

// Nullable declares a typed parameter that accepts a missing value as nil.
func Nullable(name, typeName string) Param {
	return core.Nullable(name, typeName)
}

// Engine option functions

// WithSerializer registers s for typeName and its descendants.
func WithSerializer(typeName string, s Serializer) EngineOption {
	return serial.WithSerializer(typeName, s)
}

// WithException registers a classifier for an error type and its descendants.
func WithException(typeName string, cls Classifier) EngineOption {
	return serial.WithException(typeName, cls)
}

// EmptyAsNull treats an empty string as a missing value for nullable parameters.
func EmptyAsNull() EngineOption {
	return serial.EmptyAsNull()
}

// Strict makes an unresolved serializer a configuration error.
func Strict() EngineOption {
	return serial.Strict()
}

// WithFallback replaces the serializer used for unregistered objects.
func WithFallback(s Serializer) EngineOption {
	return serial.WithFallback(s)
}

// ErrorMessage is a classifier answering with the sanitized error message.
func ErrorMessage(err error) any {
	return serial.ErrorMessage(err)
}

// ErrorStatus returns a classifier answering with the sanitized error
// message and status.
func ErrorStatus(status int) Classifier {
	return serial.ErrorStatus(status)
}

// Dispatcher option functions

// WithLogger sets the dispatcher logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) DispatchOption {
	return dispatch.WithLogger(l)
}

// WithConstructionStatus sets the default status for construction failures.
func WithConstructionStatus(status int) DispatchOption {
	return dispatch.WithConstructionStatus(status)
}

// Handler option functions

// NewMetrics registers response counters with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	return respond.NewMetrics(reg)
}

// WithHandlerLogger sets the handler logger. Defaults to slog.Default().
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return respond.WithLogger(l)
}

// WithMetrics records handler responses in m.
func WithMetrics(m *Metrics) HandlerOption {
	return respond.WithMetrics(m)
}

// WithErrorHandler replaces the handler for unclassified errors.
func WithErrorHandler(h ErrorHandler) HandlerOption {
	return respond.WithErrorHandler(h)
}

// WithMaxBodySize limits the size of posted forms.
func WithMaxBodySize(n int64) HandlerOption {
	return respond.WithMaxBodySize(n)
}

// WithRateLimit limits each client address to rps requests per second.
func WithRateLimit(rps float64, burst int) HandlerOption {
	return respond.WithRateLimit(rps, burst)
}

// Serializers

// Value returns a serializer for string-backed value types.
func Value[T any](parse func(string) (T, error)) Serializer {
	return serializers.Value(parse)
}

// JSON returns a serializer carrying T as a JSON document.
func JSON[T any]() Serializer {
	return serializers.JSON[T]()
}

// NewCron returns a serializer for cron expressions.
func NewCron() Serializer {
	return serializers.NewCron()
}

// NewStoreID returns a serializer carrying objects as their store identity.
func NewStoreID(store IdentityStore) *StoreID {
	return serializers.NewStoreID(store)
}

// NewGormIdentityStore creates a GORM-backed identity store.
func NewGormIdentityStore(db *gorm.DB) *GormIdentityStore {
	return storage.NewGormIdentityStore(db)
}

// RegisterModel makes model type T loadable from store under typeName.
func RegisterModel[T any](store *GormIdentityStore, typeName string) error {
	return storage.Register[T](store, typeName)
}

// Continuation tokens

// Signature identifies a form on a page.
func Signature(target string, args []any, method, differentiator string) (string, error) {
	return continuation.Signature(target, args, method, differentiator)
}

// Output returns the writer that collects stray output during an invocation.
func Output(ctx context.Context) io.Writer {
	return binder.Output(ctx)
}

// RequestID returns the id of the action being dispatched, or "".
func RequestID(ctx context.Context) string {
	return dispatch.RequestID(ctx)
}

// ValidateTypeName validates a declared type name.
func ValidateTypeName(name string) error {
	return security.ValidateTypeName(name)
}

// SanitizeErrorMessage truncates and sanitizes error messages for response bodies.
func SanitizeErrorMessage(msg string) string {
	return security.SanitizeErrorMessage(msg)
}
