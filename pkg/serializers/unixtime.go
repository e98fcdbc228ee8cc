package serializers

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

var (
	errExpectingTime = errors.New("expecting time.Time")
	errBadTimestamp  = errors.New("expecting unix timestamp")
)

// UnixTime carries time.Time as whole Unix seconds. Imported times are UTC.
type UnixTime struct{}

var _ core.Serializer = UnixTime{}

func (UnixTime) Export(ctx context.Context, x core.Exporter, value any) (any, error) {
	switch t := value.(type) {
	case time.Time:
		return t.Unix(), nil
	case *time.Time:
		return t.Unix(), nil
	}
	return nil, errExpectingTime
}

func (UnixTime) Import(ctx context.Context, typeName string, raw any) (any, error) {
	var secs int64
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, errBadTimestamp
		}
		secs = n
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Trunc(v) != v {
			return nil, errBadTimestamp
		}
		secs = int64(v)
	case int:
		secs = int64(v)
	case int64:
		secs = v
	default:
		return nil, errBadTimestamp
	}
	return time.Unix(secs, 0).UTC(), nil
}
