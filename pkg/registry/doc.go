// Package registry provides the type hierarchy and the insertion-ordered
// registries keyed by it.
//
// A Hierarchy is an explicit table of type names and the names each one also
// satisfies. It is filled once at startup and frozen before use. Registry[H]
// maps type names to handlers (serializers, exception classifiers) and
// resolves a requested type to the first entry, in insertion order, whose key
// is the type itself or one of its ancestors.
//
// Most users should import the root package github.com/jdziat/simple-form-actions
// which exposes Hierarchy through actions.NewTypes.
package registry
