// Package security provides validation, sanitization, and limits for the actions package.
//
// This package includes:
//   - Input validation for type names and operation names
//   - Size limits for field values and continuation tokens
//   - Error message sanitization for classified response bodies
//
// Most users should import the root package github.com/jdziat/simple-form-actions
// which re-exports these limits.
package security
