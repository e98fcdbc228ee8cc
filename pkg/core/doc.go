// Package core provides the fundamental types and interfaces for the actions package.
//
// This package contains:
//   - Param descriptors for operation and constructor arguments
//   - Serializer, Exporter and FieldSource contracts
//   - Classified responses produced by exception classifiers
//   - Error types for registry, import and invocation failures
//
// Most users should import the root package github.com/jdziat/simple-form-actions
// instead of this package directly.
package core
