// Package context provides internal context helpers for action execution.
//
// This package is internal and should not be imported directly.
// It provides context value types for:
//   - Call context: request ID, service and method of the running action
//   - Output capture: the writer that collects stray output from an operation body
package context
