// Package serial provides the serialization engine: recursive export of
// result values, type-directed import of request fields, and classification
// of errors against the exception map.
//
// An Engine is built once from a frozen registry.Hierarchy plus options that
// register serializers and classifiers in order. It is read-only afterwards
// and safe for concurrent use.
//
// Most users should import the root package github.com/jdziat/simple-form-actions
// which re-exports New and all option functions.
package serial
