package core

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnknownType      = errors.New("actions: unknown type name")
	ErrInvalidTypeName  = errors.New("actions: invalid type name (must be alphanumeric, start with letter)")
	ErrTypeNameTooLong  = errors.New("actions: type name too long")
	ErrDuplicateEntry   = errors.New("actions: type already registered")
	ErrNoSerializer     = errors.New("actions: no serializer registered")
	ErrMapImport        = errors.New("actions: cannot import simple map objects")
	ErrUnexpectedOutput = errors.New("actions: unexpected output")
	ErrNoReturnValue    = errors.New("actions: action did not return value")
	ErrUnknownMethod    = errors.New("actions: unknown method")
	ErrFieldTooLarge    = errors.New("actions: field value exceeds size limit")
	ErrFrozen           = errors.New("actions: registry is frozen")
	ErrTokenTooLarge    = errors.New("actions: continuation token exceeds size limit")
)

// ConfigurationError reports registry or wiring misuse. It is a developer
// error and is never turned into a response.
type ConfigurationError struct {
	Name string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration: %q: %v", e.Name, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Misconfigured wraps err as a ConfigurationError for name.
func Misconfigured(name string, err error) error {
	return &ConfigurationError{Name: name, Err: err}
}

// ImportError reports that a single field failed to convert.
type ImportError struct {
	Field string
	Type  string
	Err   error
}

func (e *ImportError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("import %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("import %s as %s: %v", e.Field, e.Type, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// InvocationError reports a failure raised while constructing the target or
// running the operation body.
type InvocationError struct {
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking operation.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// UnclassifiedError wraps an error that matched no exception map entry.
// It always propagates to the caller.
type UnclassifiedError struct {
	Err error
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("unclassified: %v", e.Err)
}

func (e *UnclassifiedError) Unwrap() error {
	return e.Err
}

// UnknownFieldError is returned when a view model is asked for a field the
// operation does not declare.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %s", e.Field)
}
