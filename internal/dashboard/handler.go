package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitdash/internal/aggregate"
	"github.com/2beens/fitdash/internal/dataset"
	"github.com/2beens/fitdash/internal/export"
	"github.com/2beens/fitdash/internal/filter"
	"github.com/2beens/fitdash/internal/middleware"
	"github.com/2beens/fitdash/internal/telemetry/metrics"
	"github.com/2beens/fitdash/internal/telemetry/tracing"
	"github.com/2beens/fitdash/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	service   *Service
	viewCache *ViewCache
}

func NewHandler(service *Service, viewCache *ViewCache) *Handler {
	return &Handler{
		service:   service,
		viewCache: viewCache,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	reloadLimitPerMin int,
	metricsManager *metrics.Manager,
) {
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")
	mainRouter.HandleFunc("/filters", handler.handleFilters).Methods("GET").Name("filters")
	mainRouter.HandleFunc("/dashboard", handler.handleDashboard).Methods("GET").Name("dashboard")
	mainRouter.HandleFunc("/records", handler.handleRecords).Methods("GET").Name("records")
	mainRouter.HandleFunc("/aggregate", handler.handleAggregate).Methods("GET").Name("aggregate")
	mainRouter.HandleFunc("/calendar/{year}", handler.handleCalendar).Methods("GET").Name("calendar")
	mainRouter.HandleFunc("/export", handler.handleExport).Methods("GET").Name("export")

	// reload re-runs geocoding against a public service, keep it rare
	var reloadHandler http.Handler = http.HandlerFunc(handler.handleReload)
	if rateLimiter != nil {
		reloadHandler = middleware.RateLimit(rateLimiter, "reload", reloadLimitPerMin, metricsManager)(reloadHandler)
	}
	mainRouter.Handle("/reload", reloadHandler).Methods("POST").Name("reload")
}

type healthResponse struct {
	Status    string    `json:"status"`
	DatasetID string    `json:"datasetId,omitempty"`
	Source    string    `json:"source,omitempty"`
	LoadedAt  time.Time `json:"loadedAt"`
	Records   int       `json:"records"`
}

func (handler *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ds, err := handler.service.Dataset()
	if err != nil {
		pkg.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
		return
	}
	pkg.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		DatasetID: ds.ID.String(),
		Source:    ds.Source,
		LoadedAt:  ds.LoadedAt,
		Records:   ds.Len(),
	})
}

func (handler *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.filters")
	defer span.End()

	ds, ok := handler.dataset(w)
	if !ok {
		span.SetStatus(codes.Error, "dataset not loaded")
		return
	}

	handler.respondCached(w, ViewKey(ds.ID, "filters", "-"), func() (any, error) {
		return handler.service.FilterOptions(ds), nil
	})
}

func (handler *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.dashboard")
	defer span.End()

	ds, ok := handler.dataset(w)
	if !ok {
		span.SetStatus(codes.Error, "dataset not loaded")
		return
	}

	state, err := ParseFilterQuery(r.URL.Query(), filter.DefaultState(ds.Records))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, err)
		return
	}
	span.SetAttributes(attribute.String("filter", state.Key()))

	// the current streak moves with the day, so a view is only reused within it
	viewName := "dashboard@" + handler.service.Today()
	handler.respondCached(w, ViewKey(ds.ID, viewName, state.Key()), func() (any, error) {
		return handler.service.Dashboard(ctx, ds, state)
	})
}

func (handler *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.records")
	defer span.End()

	ds, ok := handler.dataset(w)
	if !ok {
		span.SetStatus(codes.Error, "dataset not loaded")
		return
	}

	state, err := ParseFilterQuery(r.URL.Query(), filter.DefaultState(ds.Records))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, err)
		return
	}

	handler.respondCached(w, ViewKey(ds.ID, "records", state.Key()), func() (any, error) {
		return handler.service.Records(ds, state)
	})
}

func (handler *Handler) handleAggregate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.aggregate")
	defer span.End()

	ds, ok := handler.dataset(w)
	if !ok {
		span.SetStatus(codes.Error, "dataset not loaded")
		return
	}

	q := r.URL.Query()
	state, err := ParseFilterQuery(q, filter.DefaultState(ds.Records))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, err)
		return
	}
	group, reducers, err := ParseAggregateQuery(q)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, err)
		return
	}

	names := make([]string, 0, len(reducers))
	for _, red := range reducers {
		names = append(names, red.Name())
	}
	view := "aggregate:" + string(group) + ":" + strings.Join(names, ",")

	handler.respondCached(w, ViewKey(ds.ID, view, state.Key()), func() (any, error) {
		return handler.service.Aggregate(ctx, ds, state, group, reducers)
	})
}

func (handler *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.calendar")
	defer span.End()

	ds, ok := handler.dataset(w)
	if !ok {
		span.SetStatus(codes.Error, "dataset not loaded")
		return
	}

	year, err := parseYear(mux.Vars(r)["year"])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, err)
		return
	}
	m := aggregate.MetricSteps
	if metricParam := r.URL.Query().Get("metric"); metricParam != "" {
		if m, err = aggregate.ParseMetric(metricParam); err != nil {
			span.SetStatus(codes.Error, err.Error())
			writeError(w, err)
			return
		}
	}
	span.SetAttributes(attribute.Int("year", year))

	handler.respondCached(w, ViewKey(ds.ID, "calendar:"+string(m), mux.Vars(r)["year"]), func() (any, error) {
		return handler.service.Calendar(ds, year, m), nil
	})
}

func (handler *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.export")
	defer span.End()

	ds, ok := handler.dataset(w)
	if !ok {
		span.SetStatus(codes.Error, "dataset not loaded")
		return
	}

	q := r.URL.Query()
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	// an export defaults to the whole history, not the current week
	defaults := filter.DefaultState(ds.Records)
	defaults.From, defaults.To = time.Time{}, time.Time{}
	state, err := ParseFilterQuery(q, defaults)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, err)
		return
	}

	recs, err := handler.service.Records(ds, state)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(ctx, &buf, format, recs); err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("export %d records as %s: %s", len(recs), format, err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "export failed")
		return
	}

	contentType := pkg.ContentType.Parquet
	if format == export.FormatCSV {
		contentType = pkg.ContentType.CSV
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="fitdash-%s.%s"`, ds.ID, format.Extension()))
	pkg.WriteResponseBytesOK(w, contentType, buf.Bytes())
}

type reloadResponse struct {
	DatasetID string `json:"datasetId"`
	Rows      int    `json:"rows"`
	Records   int    `json:"records"`
	Dropped   int    `json:"dropped"`
	Undated   int    `json:"undated"`
	Locations int    `json:"locations"`
	Geocoded  bool   `json:"geocoded"`
}

func (handler *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.reload")
	defer span.End()

	ds, err := handler.service.Reload(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("reload dataset: %s", err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "reload failed")
		return
	}

	log.Infof("dataset reloaded: [%s], %d records", ds.ID, ds.Len())
	pkg.WriteJSON(w, http.StatusOK, reloadResponse{
		DatasetID: ds.ID.String(),
		Rows:      ds.Rows,
		Records:   ds.Len(),
		Dropped:   ds.Dropped,
		Undated:   ds.Undated,
		Locations: len(ds.Locations),
		Geocoded:  ds.Geocoded,
	})
}

func (handler *Handler) dataset(w http.ResponseWriter) (*dataset.Dataset, bool) {
	ds, err := handler.service.Dataset()
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ds, true
}

// respondCached writes the memoized body for key, computing and storing it on a miss.
func (handler *Handler) respondCached(w http.ResponseWriter, key string, compute func() (any, error)) {
	if handler.viewCache != nil {
		if body, ok := handler.viewCache.Get(key); ok {
			pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, body)
			return
		}
	}

	v, err := compute()
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal view [%s]: %s", key, err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if handler.viewCache != nil {
		handler.viewCache.Set(key, body)
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, body)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dataset.ErrNotLoaded):
		pkg.WriteJSONError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrBadQuery),
		errors.Is(err, filter.ErrInvalidRange),
		errors.Is(err, aggregate.ErrUnknownMetric),
		errors.Is(err, aggregate.ErrUnknownGroupKey),
		errors.Is(err, aggregate.ErrUnknownReduction):
		pkg.WriteJSONError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("dashboard view: %s", err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
