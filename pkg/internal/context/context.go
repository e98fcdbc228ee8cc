// Package context provides context helpers for the actions package.
package context

import (
	"context"
	"io"
)

// CallContextKey is the key for storing call context in context.Context.
type CallContextKey struct{}

// CallContext identifies the action being dispatched.
type CallContext struct {
	RequestID string
	Service   string
	Method    string
}

// GetCallContext retrieves the call context from a context.Context.
func GetCallContext(ctx context.Context) *CallContext {
	if cc, ok := ctx.Value(CallContextKey{}).(*CallContext); ok {
		return cc
	}
	return nil
}

// WithCallContext adds call context to a context.Context.
func WithCallContext(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, CallContextKey{}, cc)
}

// OutputKey is the key for storing the output capture writer in context.Context.
type OutputKey struct{}

// GetOutput returns the capture writer, or io.Discard outside an invocation.
func GetOutput(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(OutputKey{}).(io.Writer); ok {
		return w
	}
	return io.Discard
}

// WithOutput installs w as the capture writer.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, OutputKey{}, w)
}
