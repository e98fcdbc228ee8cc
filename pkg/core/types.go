package core

import (
	"context"
	"net/url"
)

// Response statuses. Every outcome maps onto exactly one of them.
const (
	StatusSuccess   = 200
	StatusBadSyntax = 400
	StatusInternal  = 500
)

// ValidStatus reports whether s is one of the three outcome statuses.
func ValidStatus(s int) bool {
	return s == StatusSuccess || s == StatusBadSyntax || s == StatusInternal
}

// PrivateSuffix is appended to a field name to form its private input name.
// Private values are accepted on submit but never echoed back.
const PrivateSuffix = "$"

// PrivateName returns the private input name for a field.
func PrivateName(name string) string {
	return name + PrivateSuffix
}

// Param describes one formal parameter of an operation or constructor.
type Param struct {
	Name string
	// Type is the declared type name. Empty means untyped: the raw
	// request value is passed through unchanged.
	Type     string
	Nullable bool
}

// Untyped declares a parameter that receives the raw request value.
func Untyped(name string) Param {
	return Param{Name: name}
}

// Typed declares a parameter imported through the serializer for typeName.
func Typed(name, typeName string) Param {
	return Param{Name: name, Type: typeName}
}

// Nullable declares a typed parameter that accepts a missing value as nil.
func Nullable(name, typeName string) Param {
	return Param{Name: name, Type: typeName, Nullable: true}
}

// Exporter converts arbitrary values into wire values. Serializers receive it
// so they can export nested values.
type Exporter interface {
	Export(ctx context.Context, value any) (any, error)
}

// Serializer converts between a typed value and its wire representation.
type Serializer interface {
	Export(ctx context.Context, x Exporter, value any) (any, error)
	Import(ctx context.Context, typeName string, raw any) (any, error)
}

// Classifier turns an anticipated error into a response body. Returning a
// Response (or *Response) overrides the default 500 status.
type Classifier func(err error) any

// Response is a classifier result with an explicit status.
type Response struct {
	Status int
	Body   any
}

// Classified is a normalized classifier result.
type Classified struct {
	Status int
	Body   any
	// Explicit is set when the classifier chose the status.
	Explicit bool
}

// FieldSource yields raw request values by field name.
type FieldSource interface {
	Lookup(name string) (any, bool)
}

// Fields is a FieldSource over a plain map.
type Fields map[string]any

// Lookup returns the value stored under name.
func (f Fields) Lookup(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

// Values adapts url.Values (form posts, query strings) to a FieldSource.
// Only the first value of each key is used.
func Values(v url.Values) FieldSource {
	return valuesSource(v)
}

type valuesSource url.Values

func (v valuesSource) Lookup(name string) (any, bool) {
	vs, ok := v[name]
	if !ok || len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}
