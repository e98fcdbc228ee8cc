package serializers

import (
	"context"
	"fmt"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

type valueSerializer[T any] struct {
	parse func(string) (T, error)
}

// Value returns a serializer for string-backed value types. Import feeds the
// raw value, rendered as a string, to parse; export renders the value with
// its String method or fmt.Sprint.
func Value[T any](parse func(string) (T, error)) core.Serializer {
	return &valueSerializer[T]{parse: parse}
}

func (s *valueSerializer[T]) Export(ctx context.Context, x core.Exporter, value any) (any, error) {
	if str, ok := value.(fmt.Stringer); ok {
		return str.String(), nil
	}
	return fmt.Sprint(value), nil
}

func (s *valueSerializer[T]) Import(ctx context.Context, typeName string, raw any) (any, error) {
	v, err := s.parse(rawString(raw))
	if err != nil {
		return nil, err
	}
	return v, nil
}

// rawString renders a scalar request value as a string; nil becomes "".
func rawString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
