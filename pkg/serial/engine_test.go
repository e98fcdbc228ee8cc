package serial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/registry"
	"github.com/jdziat/simple-form-actions/pkg/security"
	"github.com/jdziat/simple-form-actions/pkg/serializers"
)

// ---------------------------------------------------------------------------
// Helper types used across multiple tests
// ---------------------------------------------------------------------------

type intValue int

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

type domainConflict struct {
	Resource string
}

func (e *domainConflict) Error() string { return e.Resource + " already exists" }

type unregisteredError struct{}

func (e *unregisteredError) Error() string { return "boom" }

type profile struct {
	Name    string   `json:"name"`
	Age     intValue `json:"age"`
	Secret  string   `json:"-"`
	Tags    []string
	private int
}

func parseIntValue(s string) (intValue, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &validationError{msg: "not a number"}
	}
	return intValue(n), nil
}

func testTypes(t *testing.T) *registry.Hierarchy {
	t.Helper()
	h := registry.NewHierarchy()
	require.NoError(t, h.Declare("Value"))
	require.NoError(t, registry.Bind[intValue](h, "IntValue", "Value"))
	require.NoError(t, registry.Bind[*validationError](h, "ValidationError"))
	require.NoError(t, registry.Bind[*domainConflict](h, "DomainConflict"))
	require.NoError(t, registry.Bind[time.Time](h, "time.Time"))
	return h
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithSerializer("IntValue", serializers.Value(parseIntValue)),
		WithSerializer("time.Time", serializers.UnixTime{}),
		WithException("ValidationError", func(err error) any { return err.Error() }),
		WithException("DomainConflict", func(err error) any {
			return core.Response{Status: core.StatusBadSyntax, Body: map[string]any{"conflict": err.(*domainConflict).Resource}}
		}),
	}
	e, err := New(testTypes(t), append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_FreezesHierarchyAndBindsBuiltins(t *testing.T) {
	e := newTestEngine(t)

	assert.True(t, e.Types().Frozen())
	assert.True(t, e.Types().Known(ImportErrorType))
	assert.True(t, e.Types().Known(InvocationErrorType))
	assert.True(t, e.Types().Known(PanicErrorType))
	assert.Equal(t, 2, e.Serializers().Len())
	assert.Equal(t, 2, e.Exceptions().Len())
}

func TestNew_UnknownTypeIsConfigurationError(t *testing.T) {
	_, err := New(testTypes(t), WithSerializer("Missing", serializers.UnixTime{}))

	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, core.ErrUnknownType)
}

func TestNew_DuplicateRegistration(t *testing.T) {
	_, err := New(testTypes(t),
		WithException("DomainConflict", func(err error) any { return nil }),
		WithException("DomainConflict", func(err error) any { return nil }),
	)
	assert.ErrorIs(t, err, core.ErrDuplicateEntry)
}

func TestNew_NilHandlers(t *testing.T) {
	_, err := New(testTypes(t), WithSerializer("IntValue", nil))
	assert.Error(t, err)

	_, err = New(testTypes(t), WithException("DomainConflict", nil))
	assert.Error(t, err)
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(testTypes(t), WithSerializer("Missing", serializers.UnixTime{}))
	})
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func TestExport_Primitives(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for _, v := range []any{"text", 42, 3.5, true, int64(9)} {
		out, err := e.Export(ctx, v)
		require.NoError(t, err)
		assert.Equal(t, v, out)
	}

	out, err := e.Export(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	var nilProfile *profile
	out, err = e.Export(ctx, nilProfile)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestExport_RegisteredType(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	out, err := e.Export(ctx, intValue(30))
	require.NoError(t, err)
	assert.Equal(t, "30", out)

	when := time.Unix(1700000000, 0)
	out, err = e.Export(ctx, &when)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), out)
}

func TestExport_SequencePreservesOrder(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Export(context.Background(), []intValue{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []any{"3", "1", "2"}, out)
}

func TestExport_StructThroughMapSerializer(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Export(context.Background(), &profile{Name: "Al", Age: 30, Secret: "x", Tags: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Al","age":"30","Tags":["a"]}`, toJSON(t, out))
}

func TestExport_OrderedMapKeepsInsertionOrder(t *testing.T) {
	e := newTestEngine(t)
	m := orderedmap.New[string, any]()
	m.Set("z", intValue(1))
	m.Set("a", []any{intValue(2), nil})

	out, err := e.Export(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":["2",null]}`, toJSON(t, out))
}

func TestExport_PlainMapSortsKeys(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Export(context.Background(), map[string]intValue{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1","b":"2"}`, toJSON(t, out))

	_, err = e.Export(context.Background(), map[int]string{1: "x"})
	assert.Error(t, err)
}

func TestExport_BoundScalarWithoutSerializer(t *testing.T) {
	type score int
	type label string

	h := registry.NewHierarchy()
	require.NoError(t, registry.Bind[score](h, "Score"))
	require.NoError(t, registry.Bind[label](h, "Label"))

	for _, strict := range []bool{false, true} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			var opts []Option
			if strict {
				opts = append(opts, Strict())
			}
			e, err := New(h, opts...)
			require.NoError(t, err)

			out, err := e.Export(context.Background(), score(42))
			require.NoError(t, err)
			assert.Equal(t, "42", toJSON(t, out))

			out, err = e.Export(context.Background(), []any{label("gold"), score(7)})
			require.NoError(t, err)
			assert.Equal(t, `["gold",7]`, toJSON(t, out))
		})
	}
}

func TestExport_StrictRejectsUnregisteredObjects(t *testing.T) {
	e := newTestEngine(t, Strict())

	_, err := e.Export(context.Background(), profile{Name: "Al"})
	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, core.ErrNoSerializer)
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

func TestImport_Untyped(t *testing.T) {
	e := newTestEngine(t)

	v, err := e.Import(context.Background(), core.Untyped("name"), "Al")
	require.NoError(t, err)
	assert.Equal(t, "Al", v)

	v, err = e.Import(context.Background(), core.Untyped("name"), nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestImport_UntypedFieldTooLarge(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Import(context.Background(), core.Untyped("bio"), strings.Repeat("x", security.MaxFieldValueSize+1))

	var importErr *core.ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, "bio", importErr.Field)
	assert.ErrorIs(t, err, core.ErrFieldTooLarge)
}

func TestImport_Typed(t *testing.T) {
	e := newTestEngine(t)

	v, err := e.Import(context.Background(), core.Typed("age", "IntValue"), "30")
	require.NoError(t, err)
	assert.Equal(t, intValue(30), v)
}

func TestImport_FailureIsImportError(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Import(context.Background(), core.Typed("age", "IntValue"), "abc")

	var importErr *core.ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, "age", importErr.Field)
	assert.Equal(t, "IntValue", importErr.Type)

	var cause *validationError
	assert.ErrorAs(t, err, &cause)
}

func TestImport_NullablePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("nil only by default", func(t *testing.T) {
		e := newTestEngine(t)

		v, err := e.Import(ctx, core.Nullable("age", "IntValue"), nil)
		require.NoError(t, err)
		assert.Nil(t, v)

		_, err = e.Import(ctx, core.Nullable("age", "IntValue"), "")
		var importErr *core.ImportError
		assert.ErrorAs(t, err, &importErr)
	})

	t.Run("empty string with EmptyAsNull", func(t *testing.T) {
		e := newTestEngine(t, EmptyAsNull())
		assert.True(t, e.EmptyAsNullPolicy())

		v, err := e.Import(ctx, core.Nullable("age", "IntValue"), "")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("non-nullable still imports nil", func(t *testing.T) {
		e := newTestEngine(t, EmptyAsNull())

		_, err := e.Import(ctx, core.Typed("age", "IntValue"), nil)
		var importErr *core.ImportError
		assert.ErrorAs(t, err, &importErr)
	})
}

func TestImport_FallbackSerializerAlwaysFails(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Import(context.Background(), core.Typed("v", "Value"), "x")
	var importErr *core.ImportError
	require.ErrorAs(t, err, &importErr)
	assert.ErrorIs(t, err, core.ErrMapImport)
}

func TestImport_StrictMissingSerializerIsFatal(t *testing.T) {
	e := newTestEngine(t, Strict())

	_, err := e.Import(context.Background(), core.Typed("v", "Value"), "x")
	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	var importErr *core.ImportError
	assert.False(t, errors.As(err, &importErr))
}

func TestImport_UndeclaredTypeIsFatal(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Import(context.Background(), core.Typed("v", "Nope"), "x")
	assert.ErrorIs(t, err, core.ErrUnknownType)
}

// ---------------------------------------------------------------------------
// ClassifyError
// ---------------------------------------------------------------------------

func TestClassifyError_DefaultStatus(t *testing.T) {
	e := newTestEngine(t)

	c, err := e.ClassifyError(context.Background(), &validationError{msg: "bad"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusInternal, c.Status)
	assert.False(t, c.Explicit)
	assert.Equal(t, "bad", c.Body)
}

func TestClassifyError_StatusOverride(t *testing.T) {
	e := newTestEngine(t)

	c, err := e.ClassifyError(context.Background(), &domainConflict{Resource: "account"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusBadSyntax, c.Status)
	assert.True(t, c.Explicit)
	assert.Equal(t, `{"conflict":"account"}`, toJSON(t, c.Body))
}

func TestClassifyError_WalksWrappedChain(t *testing.T) {
	e := newTestEngine(t)

	wrapped := fmt.Errorf("saving: %w", &domainConflict{Resource: "email"})
	c, err := e.ClassifyError(context.Background(), wrapped)
	require.NoError(t, err)
	assert.Equal(t, `{"conflict":"email"}`, toJSON(t, c.Body))

	importErr := &core.ImportError{Field: "age", Type: "IntValue", Err: &validationError{msg: "not a number"}}
	c, err = e.ClassifyError(context.Background(), importErr)
	require.NoError(t, err)
	assert.Equal(t, "not a number", c.Body)
}

func TestClassifyError_ImportErrorEntryWinsOverCause(t *testing.T) {
	e := newTestEngine(t, WithException(ImportErrorType, func(err error) any {
		return map[string]any{"field": err.(*core.ImportError).Field}
	}))

	importErr := &core.ImportError{Field: "age", Type: "IntValue", Err: &validationError{msg: "not a number"}}
	c, err := e.ClassifyError(context.Background(), importErr)
	require.NoError(t, err)
	assert.Equal(t, `{"field":"age"}`, toJSON(t, c.Body))
}

func TestClassifyError_Unclassified(t *testing.T) {
	e := newTestEngine(t)
	raw := &unregisteredError{}

	c, err := e.ClassifyError(context.Background(), raw)
	assert.Nil(t, c)

	var unclassified *core.UnclassifiedError
	require.ErrorAs(t, err, &unclassified)
	assert.ErrorIs(t, err, raw)
}

func TestClassifyError_InvalidOverrideFallsBackTo500(t *testing.T) {
	e, err := New(testTypes(t), WithException("DomainConflict", func(err error) any {
		return &core.Response{Status: 418, Body: "teapot"}
	}))
	require.NoError(t, err)

	c, err := e.ClassifyError(context.Background(), &domainConflict{})
	require.NoError(t, err)
	assert.Equal(t, core.StatusInternal, c.Status)
	assert.False(t, c.Explicit)
	assert.Equal(t, "teapot", c.Body)
}

func TestErrorMessageClassifiers(t *testing.T) {
	e := newTestEngine(t, WithException(ImportErrorType, ErrorStatus(core.StatusBadSyntax)))

	c, err := e.ClassifyError(context.Background(), &core.ImportError{Field: "x", Type: "IntValue", Err: errors.New("bad\x00input")})
	require.NoError(t, err)
	assert.Equal(t, core.StatusBadSyntax, c.Status)
	assert.True(t, c.Explicit)
	assert.NotContains(t, c.Body, "\x00")

	assert.Equal(t, "plain", ErrorMessage(errors.New("plain")))
}
