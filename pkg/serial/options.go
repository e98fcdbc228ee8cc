package serial

import (
	"github.com/jdziat/simple-form-actions/pkg/core"
)

// Option configures an Engine.
type Option interface {
	Apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) Apply(c *config) { f(c) }

type serializerEntry struct {
	typeName string
	ser      core.Serializer
}

type exceptionEntry struct {
	typeName string
	cls      core.Classifier
}

type config struct {
	serializers []serializerEntry
	exceptions  []exceptionEntry
	emptyAsNull bool
	strict      bool
	fallback    core.Serializer
}

// WithSerializer registers s for typeName and its descendants. Entries are
// resolved in the order they are given.
func WithSerializer(typeName string, s core.Serializer) Option {
	return optionFunc(func(c *config) {
		c.serializers = append(c.serializers, serializerEntry{typeName: typeName, ser: s})
	})
}

// WithException registers a classifier for an error type and its descendants.
func WithException(typeName string, cls core.Classifier) Option {
	return optionFunc(func(c *config) {
		c.exceptions = append(c.exceptions, exceptionEntry{typeName: typeName, cls: cls})
	})
}

// EmptyAsNull treats an empty string as a missing value for nullable
// parameters. Without it only a nil raw value counts as missing.
func EmptyAsNull() Option {
	return optionFunc(func(c *config) {
		c.emptyAsNull = true
	})
}

// Strict makes an unresolved serializer a ConfigurationError instead of
// falling back to the export-only map serializer.
func Strict() Option {
	return optionFunc(func(c *config) {
		c.strict = true
	})
}

// WithFallback replaces the default map serializer used for unregistered
// typed objects when not in strict mode.
func WithFallback(s core.Serializer) Option {
	return optionFunc(func(c *config) {
		c.fallback = s
	})
}
