package serializers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

type jsonSerializer[T any] struct{}

// JSON returns a serializer for structured values of type T. Import accepts a
// JSON document string or an already decoded value; export produces the
// generic JSON form of the value.
func JSON[T any]() core.Serializer {
	return jsonSerializer[T]{}
}

func (jsonSerializer[T]) Export(ctx context.Context, x core.Exporter, value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (jsonSerializer[T]) Import(ctx context.Context, typeName string, raw any) (any, error) {
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value: %w", err)
		}
		data = b
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", typeName, err)
	}
	return out, nil
}
