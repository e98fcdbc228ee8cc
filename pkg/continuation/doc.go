// Package continuation encodes action outcomes into URL-safe tokens.
//
// A token carries the submitted field values, the outcome status and the
// outcome body across a 303 redirect. It is bound to one form on the
// originating page by a signature; a token whose signature does not match is
// ignored.
//
// Most users should import the root package github.com/jdziat/simple-form-actions
// instead of this package directly.
package continuation
