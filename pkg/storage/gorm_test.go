package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/serializers"
)

type account struct {
	ID    string `gorm:"primaryKey"`
	Email string
}

type invoice struct {
	Number uint `gorm:"primaryKey;autoIncrement"`
	Total  int
}

type noKey struct {
	Name  string
	Label string
}

// newTestStore creates a migrated store with account and invoice registered.
func newTestStore(t *testing.T) *GormIdentityStore {
	t.Helper()
	s := NewGormIdentityStore(openTestDB(t))
	require.NoError(t, Register[account](s, "Account"))
	require.NoError(t, Register[*invoice](s, "Invoice"))
	require.NoError(t, s.Migrate(context.Background()), "migrate schema")
	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// Constructor / registration
// ──────────────────────────────────────────────────────────────────────────────

func TestNewGormIdentityStore_IsSQLite(t *testing.T) {
	s := NewGormIdentityStore(openTestDB(t))
	assert.True(t, s.IsSQLite(), "should detect SQLite dialect")
	assert.NotNil(t, s.DB())
}

func TestRegister_RejectsNonStruct(t *testing.T) {
	s := NewGormIdentityStore(openTestDB(t))

	var cfgErr *core.ConfigurationError
	assert.ErrorAs(t, Register[string](s, "Name"), &cfgErr)
}

func TestRegister_RejectsDuplicateName(t *testing.T) {
	s := NewGormIdentityStore(openTestDB(t))
	require.NoError(t, Register[account](s, "Account"))

	err := Register[invoice](s, "Account")
	assert.ErrorIs(t, err, core.ErrDuplicateEntry)
}

func TestRegister_RejectsInvalidName(t *testing.T) {
	s := NewGormIdentityStore(openTestDB(t))
	err := Register[account](s, "9lives")
	assert.ErrorIs(t, err, core.ErrInvalidTypeName)
}

func TestRegister_RequiresSinglePrimaryKey(t *testing.T) {
	s := NewGormIdentityStore(openTestDB(t))
	err := Register[noKey](s, "NoKey")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary key")
}

func TestMigrate_NoModels(t *testing.T) {
	s := NewGormIdentityStore(openTestDB(t))
	assert.NoError(t, s.Migrate(context.Background()))
}

// ──────────────────────────────────────────────────────────────────────────────
// Save / ExportID / ImportID
// ──────────────────────────────────────────────────────────────────────────────

func TestSave_AssignsUUID(t *testing.T) {
	s := newTestStore(t)
	a := &account{Email: "al@example.com"}

	require.NoError(t, s.Save(context.Background(), a))
	assert.Len(t, a.ID, 36)
}

func TestSave_PreservesExistingID(t *testing.T) {
	s := newTestStore(t)
	a := &account{ID: "acct-1", Email: "al@example.com"}

	require.NoError(t, s.Save(context.Background(), a))
	assert.Equal(t, "acct-1", a.ID)
}

func TestSave_RejectsUnregistered(t *testing.T) {
	s := newTestStore(t)
	err := s.Save(context.Background(), &noKey{Name: "x"})
	assert.ErrorIs(t, err, ErrUnregisteredModel)
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := &account{Email: "al@example.com"}
	require.NoError(t, s.Save(ctx, a))

	id, err := s.ExportID(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)

	loaded, err := s.ImportID(ctx, "Account", id)
	require.NoError(t, err)
	require.IsType(t, &account{}, loaded)
	assert.Equal(t, "al@example.com", loaded.(*account).Email)
}

func TestExportImport_IntegerKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := &invoice{Total: 120}
	require.NoError(t, s.Save(ctx, inv))
	require.NotZero(t, inv.Number)

	id, err := s.ExportID(ctx, *inv)
	require.NoError(t, err)

	loaded, err := s.ImportID(ctx, "Invoice", id)
	require.NoError(t, err)
	assert.Equal(t, 120, loaded.(*invoice).Total)
}

func TestExportID_RequiresIdentity(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ExportID(context.Background(), &account{})
	assert.Error(t, err)
}

func TestImportID_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ImportID(context.Background(), "Account", "missing")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestImportID_UnknownType(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ImportID(context.Background(), "Customer", "1")
	assert.ErrorIs(t, err, ErrUnregisteredModel)
}

func TestStoreIDSerializer_UsesStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := &account{Email: "al@example.com"}
	require.NoError(t, s.Save(ctx, a))

	ser := serializers.NewStoreID(s)

	out, err := ser.Export(ctx, nil, a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, out)

	loaded, err := ser.Import(ctx, "Account", a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, loaded.(*account).Email)

	_, err = ser.Import(ctx, "Account", "")
	assert.Error(t, err)
}
