// Package respond emits dispatch outcomes over HTTP.
//
// Two modes are supported:
//   - Direct: the status code and a JSON body, for script-driven clients
//   - Redirect: a 303 back to the referring page carrying a continuation
//     token, for plain HTML form posts that asked for it with a redirect
//     query parameter
//
// Handler wires a Dispatcher, a Service method and both modes into an
// http.Handler.
//
// Most users should import the root package github.com/jdziat/simple-form-actions
// instead of this package directly.
package respond
