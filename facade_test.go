package actions_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	actions "github.com/jdziat/simple-form-actions"
)

type project struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

type planner struct {
	project *project
}

func (p *planner) Plan(ctx context.Context, spec *actions.CronSpec, from time.Time) (map[string]any, error) {
	return map[string]any{
		"project": p.project,
		"next":    spec.Next(from),
	}, nil
}

// newPlanner wires a dispatcher over a GORM identity store holding one
// project with id "p1".
func newPlanner(t *testing.T) (*actions.Dispatcher, *actions.Service, *project) {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := actions.NewGormIdentityStore(db)
	require.NoError(t, actions.RegisterModel[project](store, "Project"))
	require.NoError(t, store.Migrate(ctx))
	p := &project{ID: "p1", Name: "Launch"}
	require.NoError(t, store.Save(ctx, p))

	types := actions.NewTypes()
	actions.MustBind[*project](types, "Project")
	actions.MustBind[actions.CronSpec](types, "Cron")
	actions.MustBind[time.Time](types, "Time")

	d, err := actions.New(types,
		actions.WithSerializer("Project", actions.NewStoreID(store)),
		actions.WithSerializer("Cron", actions.NewCron()),
		actions.WithSerializer("Time", actions.UnixTime{}),
		actions.WithException("ImportError", actions.ErrorMessage),
	)
	require.NoError(t, err)

	svc := actions.MustService("Planner", func(p *project) (*planner, error) {
		return &planner{project: p}, nil
	}, actions.Typed("project", "Project")).
		MustRegister("plan", (*planner).Plan, actions.Typed("spec", "Cron"), actions.Typed("from", "Time"))

	return d, svc, p
}

func post(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// 2026-01-01T00:00:00Z
const newYear = "1767225600"

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestHandler_DirectEndToEnd(t *testing.T) {
	d, svc, _ := newPlanner(t)

	w := httptest.NewRecorder()
	actions.Handler(d, svc, "plan").ServeHTTP(w, post("/plan?project=p1", url.Values{
		"spec": {"0 9 * * *"},
		"from": {newYear},
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"project":"p1","next":1767258000}`, w.Body.String())
}

func TestHandler_ImportFailures(t *testing.T) {
	d, svc, _ := newPlanner(t)
	h := actions.Handler(d, svc, "plan")

	t.Run("bad field", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, post("/plan?project=p1", url.Values{"spec": {"every day"}, "from": {newYear}}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"spec"`)
		assert.NotContains(t, w.Body.String(), `"from"`)
	})

	t.Run("missing instance", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, post("/plan?project=nope", url.Values{"spec": {"@daily"}, "from": {newYear}}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Project")
	})
}

func TestHandler_RedirectEndToEnd(t *testing.T) {
	ctx := context.Background()
	d, svc, p := newPlanner(t)

	page, err := d.CreateForm(ctx, svc, "/plan", map[string]any{"project": p}, "plan", "", nil)
	require.NoError(t, err)
	assert.Contains(t, page.URL(), "project=p1")
	assert.Contains(t, page.URL(), "redirect="+page.Signature())

	r := post(page.URL(), url.Values{"spec": {"@hourly"}, "from": {newYear}})
	r.Header.Set("Referer", "http://app/projects/p1")
	w := httptest.NewRecorder()
	actions.Handler(d, svc, "plan").ServeHTTP(w, r)

	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/projects/p1", loc.Path)

	next, err := d.CreateForm(ctx, svc, "/plan", map[string]any{"project": p}, "plan", "", loc.Query())
	require.NoError(t, err)
	require.True(t, next.HasReturnValue())

	var got struct {
		Project string `json:"project"`
		Next    int64  `json:"next"`
	}
	require.NoError(t, next.ReturnValueInto(&got))
	assert.Equal(t, "p1", got.Project)
	assert.Equal(t, int64(1767229200), got.Next)

	spec, err := next.Field(ctx, "spec", nil)
	require.NoError(t, err)
	assert.Equal(t, "@hourly", spec.Value)
}

// ---------------------------------------------------------------------------
// Facade helpers
// ---------------------------------------------------------------------------

func TestSignature_DependsOnDifferentiator(t *testing.T) {
	a, err := actions.Signature("Planner", []any{"p1"}, "plan", "")
	require.NoError(t, err)
	b, err := actions.Signature("Planner", []any{"p1"}, "plan", "sidebar")
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := actions.LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidateTypeName(t *testing.T) {
	assert.NoError(t, actions.ValidateTypeName("Project"))
	assert.Error(t, actions.ValidateTypeName(""))
}
