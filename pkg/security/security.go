// Package security provides validation, sanitization, and limits for the actions package.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

// Security limits and configuration
const (
	// MaxTypeNameLength is the maximum length for declared type names
	MaxTypeNameLength = 255

	// MaxMethodNameLength is the maximum length for operation names
	MaxMethodNameLength = 255

	// MaxFieldValueSize is the maximum size in bytes of a single string field value (64KB)
	MaxFieldValueSize = 64 << 10

	// MaxTokenSize is the maximum length of an encoded continuation token.
	// Tokens travel in a URL, so anything larger is rejected unread.
	MaxTokenSize = 32 << 10

	// MaxErrorMessageLength is the maximum length for error messages placed in response bodies
	MaxErrorMessageLength = 4096
)

// validTypeName matches identifiers with optional package qualification
var validTypeName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-\./]*$`)

// validMethodName matches plain identifiers
var validMethodName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidateTypeName validates a type name used as a registry key
func ValidateTypeName(name string) error {
	if name == "" {
		return core.ErrInvalidTypeName
	}
	if len(name) > MaxTypeNameLength {
		return core.ErrTypeNameTooLong
	}
	if !validTypeName.MatchString(name) {
		return core.ErrInvalidTypeName
	}
	return nil
}

// ValidateMethodName validates an operation name
func ValidateMethodName(name string) error {
	if name == "" || len(name) > MaxMethodNameLength || !validMethodName.MatchString(name) {
		return core.ErrUnknownMethod
	}
	return nil
}

// ValidateFieldValue rejects oversized string values before they reach a serializer
func ValidateFieldValue(raw any) error {
	if s, ok := raw.(string); ok && len(s) > MaxFieldValueSize {
		return core.ErrFieldTooLarge
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for response bodies
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}
