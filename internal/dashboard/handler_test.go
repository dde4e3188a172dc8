package dashboard

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/fitdash/internal/aggregate"
	"github.com/2beens/fitdash/internal/dataset"
	"github.com/2beens/fitdash/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testRequestRateLimiter struct {
	// key to limit map
	Limits map[string]int
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	res := &redis_rate.Result{}

	foundLimit, ok := l.Limits[key]
	if !ok || foundLimit == 0 {
		return res, nil
	}

	res.Allowed = l.Limits[key]
	l.Limits[key]--

	return res, nil
}

type testEnv struct {
	router         *mux.Router
	service        *Service
	store          *dataset.Store
	viewCache      *ViewCache
	metricsManager *metrics.Manager
	dataPath       string
}

func newTestEnv(t *testing.T, load bool, rateLimiter *testRequestRateLimiter) *testEnv {
	t.Helper()

	dataPath := filepath.Join(t.TempDir(), "daily.csv")
	content, err := os.ReadFile(filepath.Join("testdata", "daily.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dataPath, content, 0o600))

	metricsManager := metrics.NewTestManager()
	loader := dataset.NewLoader(dataset.LoaderParams{
		GeocodingEnabled: false,
		MetricsManager:   metricsManager,
	})
	store := dataset.NewStore(loader, dataPath)
	if load {
		_, err := store.Reload(context.Background())
		require.NoError(t, err)
	}

	viewCache := NewViewCache(32, time.Minute, metricsManager)
	service := NewService(store, viewCache, Goals{Steps: 2000, HeartPoints: 10})
	service.now = func() time.Time {
		return time.Date(2024, 3, 6, 21, 0, 0, 0, time.UTC)
	}

	if rateLimiter == nil {
		rateLimiter = &testRequestRateLimiter{Limits: map[string]int{"reload": 100}}
	}

	r := mux.NewRouter()
	NewHandler(service, viewCache).SetupRoutes(r, rateLimiter, 5, metricsManager)

	return &testEnv{
		router:         r,
		service:        service,
		store:          store,
		viewCache:      viewCache,
		metricsManager: metricsManager,
		dataPath:       dataPath,
	}
}

func (e *testEnv) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHandler_Health(t *testing.T) {
	env := newTestEnv(t, false, nil)
	rr := env.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "loading", decode[healthResponse](t, rr).Status)

	env = newTestEnv(t, true, nil)
	rr = env.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	health := decode[healthResponse](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 5, health.Records)
	assert.Equal(t, env.dataPath, health.Source)
}

func TestHandler_NotLoaded(t *testing.T) {
	env := newTestEnv(t, false, nil)
	for _, target := range []string{"/filters", "/dashboard", "/records", "/aggregate", "/calendar/2024"} {
		rr := env.do(t, http.MethodGet, target)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, target)
	}
}

func TestHandler_Filters(t *testing.T) {
	env := newTestEnv(t, true, nil)
	rr := env.do(t, http.MethodGet, "/filters")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	opts := decode[FilterOptions](t, rr)
	assert.Equal(t, []string{"Cycling", "Running", "Walking"}, opts.Activities)
	assert.Equal(t, []string{"Loc (48.85, 2.35)", "Loc (52.52, 13.40)"}, opts.Locations)
	assert.False(t, opts.Geocoded)
	require.NotNil(t, opts.From)
	require.NotNil(t, opts.To)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), *opts.From)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), *opts.To)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), opts.Default.From)
}

func TestHandler_Dashboard_DefaultFilter(t *testing.T) {
	env := newTestEnv(t, true, nil)
	rr := env.do(t, http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)

	view := decode[View](t, rr)
	// the default activity selection leaves out inactive rows
	assert.Equal(t, 3, view.Records)
	assert.Equal(t, 2, view.Overview.Days)
	assert.Equal(t, 4400.0, view.Overview.TotalSteps)
	assert.InDelta(t, 2200.0, view.Overview.AvgDailySteps, 1e-9)
	require.Len(t, view.Daily, 3)
	assert.Zero(t, view.Daily[1].Steps)

	require.NotNil(t, view.Hourly)
	assert.Len(t, view.Hourly.Rows, 24)
	require.NotNil(t, view.Weekday)
	assert.Len(t, view.Weekday.Rows, 7)

	require.Len(t, view.WeekComparisons, 5)
	for _, wc := range view.WeekComparisons {
		assert.True(t, wc.Insufficient, wc.Metric)
		assert.Nil(t, wc.Comparison)
		assert.NotEmpty(t, wc.Reason)
	}

	require.Len(t, view.Goals, 2)
	assert.Equal(t, aggregate.MetricSteps, view.Goals[0].Metric)
	// 1800 on the 4th misses 2000, 2600 on the 6th meets it
	assert.Equal(t, 1, view.Goals[0].DaysMet)

	require.Len(t, view.PersonalRecords, 3)
	assert.Equal(t, 2600.0, view.PersonalRecords[0].Value)

	require.Len(t, view.Locations, 2)
	assert.Equal(t, "Loc (52.52, 13.40)", view.Locations[0].Location)

	// 6th active, 5th only inactive rows
	assert.Equal(t, 1, view.Streaks.Current)
}

func TestHandler_Dashboard_QueryParams(t *testing.T) {
	env := newTestEnv(t, true, nil)

	// present but empty selects nothing
	rr := env.do(t, http.MethodGet, "/dashboard?activity=")
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[View](t, rr)
	assert.Zero(t, view.Records)
	assert.Zero(t, view.Overview.Days)
	assert.Empty(t, view.Filter.Activities)

	// open range, inactive rows only; unknown location always passes
	rr = env.do(t, http.MethodGet, "/dashboard?from=&to=&activity=Inactive")
	require.Equal(t, http.StatusOK, rr.Code)
	view = decode[View](t, rr)
	assert.Equal(t, 2, view.Records)
	assert.True(t, view.Filter.From.IsZero())

	rr = env.do(t, http.MethodGet, "/dashboard?from=2024-03-06&location=Loc+(48.85,+2.35)")
	require.Equal(t, http.StatusOK, rr.Code)
	view = decode[View](t, rr)
	assert.Equal(t, 1, view.Records)
	assert.Equal(t, 2600.0, view.Overview.TotalSteps)
}

func TestHandler_Dashboard_BadQuery(t *testing.T) {
	env := newTestEnv(t, true, nil)
	for _, target := range []string{
		"/dashboard?from=03/04/2024",
		"/dashboard?from=2024-03-06&to=2024-03-01",
		"/records?to=yesterday",
	} {
		rr := env.do(t, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "error", target)
	}
}

func TestHandler_Records(t *testing.T) {
	env := newTestEnv(t, true, nil)
	rr := env.do(t, http.MethodGet, "/records?from=&to=&activity=Walking")
	require.Equal(t, http.StatusOK, rr.Code)

	recs := decode[[]map[string]any](t, rr)
	require.Len(t, recs, 2)
	assert.Equal(t, "Walking", recs[0]["activityType"])
	assert.Equal(t, "Walking, Running", recs[1]["activityType"])
}

func TestHandler_Aggregate(t *testing.T) {
	env := newTestEnv(t, true, nil)
	rr := env.do(t, http.MethodGet, "/aggregate?group=hour&metric=steps&metric=calories:mean")
	require.Equal(t, http.StatusOK, rr.Code)

	table := decode[aggregate.Table](t, rr)
	assert.Equal(t, aggregate.GroupHour, table.GroupKey)
	assert.Equal(t, []string{"steps_sum", "calories_mean"}, table.Columns)
	require.Len(t, table.Rows, 24)
	assert.Equal(t, 1800.0, table.Value("07", "steps_sum"))
	assert.Equal(t, 2600.0, table.Value("12", "steps_sum"))
	assert.Zero(t, table.Value("03", "steps_sum"))

	rr = env.do(t, http.MethodGet, "/aggregate?group=location")
	require.Equal(t, http.StatusOK, rr.Code)
	table = decode[aggregate.Table](t, rr)
	assert.Equal(t, 1800.0, table.Value("Loc (52.52, 13.40)", "steps_sum"))

	for _, target := range []string{
		"/aggregate?group=month",
		"/aggregate?metric=floors",
		"/aggregate?metric=steps:median",
	} {
		rr := env.do(t, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestHandler_Calendar(t *testing.T) {
	env := newTestEnv(t, true, nil)
	rr := env.do(t, http.MethodGet, "/calendar/2024?metric=calories")
	require.Equal(t, http.StatusOK, rr.Code)

	heatmap := decode[aggregate.Heatmap](t, rr)
	assert.Equal(t, 2024, heatmap.Year)
	assert.Equal(t, aggregate.MetricCalories, heatmap.Metric)
	assert.Len(t, heatmap.Days, 366)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/calendar/twenty").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/calendar/2024?metric=floors").Code)
}

func TestHandler_ViewCache(t *testing.T) {
	env := newTestEnv(t, true, nil)

	first := env.do(t, http.MethodGet, "/dashboard?from=&to=")
	require.Equal(t, http.StatusOK, first.Code)
	second := env.do(t, http.MethodGet, "/dashboard?from=&to=")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metricsManager.CounterViewCache.WithLabelValues(viewCacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metricsManager.CounterViewCache.WithLabelValues(viewCacheHit)))
	assert.Equal(t, int64(1), env.viewCache.Len())

	// selection order does not matter for the cache key
	env.do(t, http.MethodGet, "/records?activity=Walking&activity=Cycling")
	env.do(t, http.MethodGet, "/records?activity=Cycling&activity=Walking")
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metricsManager.CounterViewCache.WithLabelValues(viewCacheHit)))
}

func TestHandler_ViewCache_DayRollover(t *testing.T) {
	env := newTestEnv(t, true, nil)

	rr := env.do(t, http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[View](t, rr).Streaks.Current)

	// past midnight the cached view of the previous day must not be served
	env.service.now = func() time.Time {
		return time.Date(2024, 3, 7, 0, 30, 0, 0, time.UTC)
	}
	rr = env.do(t, http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, decode[View](t, rr).Streaks.Current)

	assert.Equal(t, 2.0, testutil.ToFloat64(env.metricsManager.CounterViewCache.WithLabelValues(viewCacheMiss)))
	assert.Zero(t, testutil.ToFloat64(env.metricsManager.CounterViewCache.WithLabelValues(viewCacheHit)))
	assert.Equal(t, int64(2), env.viewCache.Len())
}

func TestHandler_Reload(t *testing.T) {
	env := newTestEnv(t, true, nil)
	before, err := env.store.Current()
	require.NoError(t, err)

	env.do(t, http.MethodGet, "/dashboard")
	require.Equal(t, int64(1), env.viewCache.Len())

	rr := env.do(t, http.MethodPost, "/reload")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[reloadResponse](t, rr)
	assert.NotEqual(t, before.ID.String(), resp.DatasetID)
	assert.Equal(t, 6, resp.Rows)
	assert.Equal(t, 5, resp.Records)
	assert.Equal(t, 1, resp.Dropped)
	assert.Zero(t, resp.Undated)
	assert.Equal(t, 2, resp.Locations)
	assert.Zero(t, env.viewCache.Len())

	// a broken file keeps the previous dataset
	require.NoError(t, os.WriteFile(env.dataPath, []byte("Date,Step count\n"), 0o600))
	rr = env.do(t, http.MethodPost, "/reload")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	current, err := env.store.Current()
	require.NoError(t, err)
	assert.Equal(t, resp.DatasetID, current.ID.String())

	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodGet, "/reload").Code)
}

func TestHandler_Reload_RateLimited(t *testing.T) {
	env := newTestEnv(t, true, &testRequestRateLimiter{Limits: map[string]int{"reload": 1}})

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/reload").Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodPost, "/reload").Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metricsManager.CounterRateLimited))
}

func TestHandler_Export(t *testing.T) {
	env := newTestEnv(t, true, nil)

	rr := env.do(t, http.MethodGet, "/export?format=csv")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".csv")
	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	// header plus the three active records over the whole history
	assert.Len(t, rows, 4)

	rr = env.do(t, http.MethodGet, "/export?format=csv&activity=Inactive")
	require.Equal(t, http.StatusOK, rr.Code)
	rows, err = csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rr = env.do(t, http.MethodGet, "/export")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "PAR1", rr.Body.String()[:4])

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/export?format=xlsx").Code)
}
