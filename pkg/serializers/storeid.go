package serializers

import (
	"context"
	"errors"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

// IdentityStore maps persistent objects to and from identity strings.
type IdentityStore interface {
	ExportID(ctx context.Context, value any) (string, error)
	ImportID(ctx context.Context, typeName, id string) (any, error)
}

var errEmptyID = errors.New("missing identifier")

// StoreID carries persistent objects as their store identity. Store errors
// surface as ordinary import errors.
type StoreID struct {
	Store IdentityStore
}

// NewStoreID creates a StoreID serializer over store.
func NewStoreID(store IdentityStore) *StoreID {
	return &StoreID{Store: store}
}

func (s *StoreID) Export(ctx context.Context, x core.Exporter, value any) (any, error) {
	return s.Store.ExportID(ctx, value)
}

func (s *StoreID) Import(ctx context.Context, typeName string, raw any) (any, error) {
	id := rawString(raw)
	if id == "" {
		return nil, errEmptyID
	}
	return s.Store.ImportID(ctx, typeName, id)
}
