// Package dispatch runs one action per request.
//
// A Dispatcher binds request fields to an operation's parameters, constructs
// the target, invokes the operation and classifies anything that goes wrong.
// The result is an Outcome with one of three statuses, ready to be emitted
// by package respond.
//
// Most users should import the root package github.com/jdziat/simple-form-actions
// instead of this package directly.
package dispatch
