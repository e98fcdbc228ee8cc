package serial

import (
	"context"
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

// MapSerializer exports the exported fields of a struct as an ordered map
// and never imports. It shapes results; it does not deserialize requests.
type MapSerializer struct{}

// Export converts a struct (or pointer to struct) into an ordered map,
// exporting each field value through x. Field names follow json tags when
// present.
func (MapSerializer) Export(ctx context.Context, x core.Exporter, value any) (any, error) {
	rv := reflect.Indirect(reflect.ValueOf(value))
	out := orderedmap.New[string, any]()
	if rv.Kind() != reflect.Struct {
		return out, nil
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		v, err := x.Export(ctx, rv.Field(i).Interface())
		if err != nil {
			return nil, err
		}
		out.Set(name, v)
	}
	return out, nil
}

// Import always fails.
func (MapSerializer) Import(ctx context.Context, typeName string, raw any) (any, error) {
	return nil, core.ErrMapImport
}
