// Package binder turns request fields into operation arguments and invokes
// operations.
//
// This package provides:
//   - Func: reflection-based metadata and invocation for operation and
//     constructor functions with statically declared parameters
//   - Bind: per-field import with aggregated field errors
//   - Output: the writer an operation body may (incorrectly) write to;
//     anything written fails the invocation
package binder
