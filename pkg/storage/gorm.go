package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/security"
)

// ErrModelNotFound is returned by ImportID when no row has the given id.
var ErrModelNotFound = errors.New("actions: model not found")

// ErrUnregisteredModel is returned for values or type names that were not
// registered with the store.
var ErrUnregisteredModel = errors.New("actions: model not registered")

// GormIdentityStore implements serializers.IdentityStore using GORM.
type GormIdentityStore struct {
	db *gorm.DB

	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

// NewGormIdentityStore creates a new GORM-backed identity store.
func NewGormIdentityStore(db *gorm.DB) *GormIdentityStore {
	return &GormIdentityStore{
		db:     db,
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// DB returns the underlying GORM database connection.
func (s *GormIdentityStore) DB() *gorm.DB {
	return s.db
}

// IsSQLite returns true if the underlying database is SQLite.
func (s *GormIdentityStore) IsSQLite() bool {
	return s.db != nil && s.db.Name() == "sqlite"
}

// Register makes model type T loadable under typeName. T must be a struct
// with a single primary key.
func Register[T any](s *GormIdentityStore, typeName string) error {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return core.Misconfigured(typeName, fmt.Errorf("model must be a struct, got %s", t))
	}
	if err := security.ValidateTypeName(typeName); err != nil {
		return core.Misconfigured(typeName, err)
	}

	if _, err := s.primaryField(reflect.New(t).Interface()); err != nil {
		return core.Misconfigured(typeName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[typeName]; exists {
		return core.Misconfigured(typeName, core.ErrDuplicateEntry)
	}
	s.byName[typeName] = t
	s.byType[t] = typeName
	return nil
}

// Migrate creates tables for every registered model.
func (s *GormIdentityStore) Migrate(ctx context.Context) error {
	s.mu.RLock()
	models := make([]any, 0, len(s.byName))
	for _, t := range s.byName {
		models = append(models, reflect.New(t).Interface())
	}
	s.mu.RUnlock()

	if len(models) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).AutoMigrate(models...)
}

// Save inserts or updates a model. A string primary key left empty is
// assigned a new UUID.
func (s *GormIdentityStore) Save(ctx context.Context, model any) error {
	if _, err := s.modelName(model); err != nil {
		return err
	}
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("actions: save requires a non-nil pointer, got %T", model)
	}

	pk, err := s.primaryField(model)
	if err != nil {
		return err
	}
	if _, zero := pk.ValueOf(ctx, rv.Elem()); zero && pk.FieldType.Kind() == reflect.String {
		if err := pk.Set(ctx, rv.Elem(), uuid.New().String()); err != nil {
			return fmt.Errorf("actions: assign id: %w", err)
		}
	}
	return s.db.WithContext(ctx).Save(model).Error
}

// ExportID returns the primary key of a registered model as a string.
func (s *GormIdentityStore) ExportID(ctx context.Context, value any) (string, error) {
	if _, err := s.modelName(value); err != nil {
		return "", err
	}
	pk, err := s.primaryField(value)
	if err != nil {
		return "", err
	}

	id, zero := pk.ValueOf(ctx, reflect.Indirect(reflect.ValueOf(value)))
	if zero {
		return "", fmt.Errorf("actions: %T has no identity", value)
	}
	return fmt.Sprint(id), nil
}

// ImportID loads the model registered as typeName with the given primary key.
// The result is a pointer to the model struct.
func (s *GormIdentityStore) ImportID(ctx context.Context, typeName, id string) (any, error) {
	s.mu.RLock()
	t, ok := s.byName[typeName]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredModel, typeName)
	}

	model := reflect.New(t).Interface()
	pk, err := s.primaryField(model)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Where(pk.DBName+" = ?", id).First(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, err
	}
	return model, nil
}

func (s *GormIdentityStore) modelName(value any) (string, error) {
	t := reflect.TypeOf(value)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.RLock()
	name, ok := s.byType[t]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrUnregisteredModel, value)
	}
	return name, nil
}

func (s *GormIdentityStore) primaryField(model any) (*schema.Field, error) {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("actions: parse model: %w", err)
	}
	if len(stmt.Schema.PrimaryFields) != 1 {
		return nil, fmt.Errorf("actions: %s must have exactly one primary key", stmt.Schema.Name)
	}
	return stmt.Schema.PrimaryFields[0], nil
}
