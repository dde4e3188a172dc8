package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/fitdash/internal/aggregate"
	"github.com/2beens/fitdash/internal/dataset"
	"github.com/2beens/fitdash/internal/filter"
	"github.com/2beens/fitdash/internal/records"
	"github.com/2beens/fitdash/internal/stats"
	"github.com/2beens/fitdash/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var comparedMetrics = []aggregate.Metric{
	aggregate.MetricSteps,
	aggregate.MetricCalories,
	aggregate.MetricDistance,
	aggregate.MetricHeartPoints,
	aggregate.MetricExerciseMinutes,
}

var recordMetrics = []aggregate.Metric{
	aggregate.MetricSteps,
	aggregate.MetricDistance,
	aggregate.MetricCalories,
}

type Goals struct {
	Steps       float64
	HeartPoints float64
}

// Service computes the dashboard views of a loaded dataset. All view
// functions are pure over their inputs; only Reload touches state.
type Service struct {
	store     *dataset.Store
	viewCache *ViewCache
	goals     Goals
	now       func() time.Time
}

func NewService(store *dataset.Store, viewCache *ViewCache, goals Goals) *Service {
	return &Service{
		store:     store,
		viewCache: viewCache,
		goals:     goals,
		now:       time.Now,
	}
}

// Today is the calendar day day-relative views (the current streak) are computed for.
func (s *Service) Today() string {
	return s.now().Format("2006-01-02")
}

func (s *Service) Dataset() (*dataset.Dataset, error) {
	return s.store.Current()
}

// Reload loads the data file again and, on success, drops every memoized view.
func (s *Service) Reload(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := s.store.Reload(ctx)
	if err != nil {
		return nil, err
	}
	if s.viewCache != nil {
		s.viewCache.Clear()
	}
	return ds, nil
}

type FilterOptions struct {
	DatasetID  uuid.UUID    `json:"datasetId"`
	From       *time.Time   `json:"from,omitempty"`
	To         *time.Time   `json:"to,omitempty"`
	Activities []string     `json:"activities"`
	Locations  []string     `json:"locations"`
	Default    filter.State `json:"default"`
	Geocoded   bool         `json:"geocoded"`
}

func (s *Service) FilterOptions(ds *dataset.Dataset) *FilterOptions {
	opts := &FilterOptions{
		DatasetID:  ds.ID,
		Activities: filter.ActivityOptions(ds.Records),
		Locations:  filter.LocationOptions(ds.Records),
		Default:    filter.DefaultState(ds.Records),
		Geocoded:   ds.Geocoded,
	}
	if first, last, ok := ds.DateRange(); ok {
		opts.From = &first
		opts.To = &last
	}
	return opts
}

// WeekComparisonResult carries either a comparison or the reason there is none.
type WeekComparisonResult struct {
	Metric       aggregate.Metric          `json:"metric"`
	Comparison   *aggregate.WeekComparison `json:"comparison,omitempty"`
	Insufficient bool                      `json:"insufficient"`
	Reason       string                    `json:"reason,omitempty"`
}

type View struct {
	DatasetID uuid.UUID    `json:"datasetId"`
	Filter    filter.State `json:"filter"`
	Records   int          `json:"records"`

	Overview  aggregate.Overview  `json:"overview"`
	Timeshare aggregate.Timeshare `json:"timeshare"`
	Daily     []aggregate.Day     `json:"daily"`
	Hourly    *aggregate.Table    `json:"hourly"`
	Weekday   *aggregate.Table    `json:"weekday"`

	HeartPointsByExercise []aggregate.ActivityDayValue `json:"heartPointsByExercise"`
	ExerciseMinutesByType []aggregate.ActivityDayValue `json:"exerciseMinutesByType"`
	ActivityDistribution  []aggregate.ActivityTotal    `json:"activityDistribution"`
	CalorieChanges        []aggregate.WaterfallStep    `json:"calorieChanges"`
	Locations             []aggregate.LocationSummary  `json:"locations"`

	WeekComparisons []WeekComparisonResult `json:"weekComparisons"`
	PersonalRecords []stats.PersonalRecord `json:"personalRecords"`
	Goals           []stats.GoalProgress   `json:"goals"`
	Streaks         stats.ActivityStreaks  `json:"streaks"`
}

// Dashboard computes every view for the records passing state.
func (s *Service) Dashboard(ctx context.Context, ds *dataset.Dataset, state filter.State) (_ *View, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "dashboard.view")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := state.Validate(); err != nil {
		return nil, err
	}

	recs := filter.Apply(ds.Records, state)
	span.SetAttributes(
		attribute.String("dataset", ds.ID.String()),
		attribute.Int("records", len(recs)),
	)

	days := aggregate.Daily(recs)
	from, to := state.From, state.To
	if len(days) > 0 {
		if from.IsZero() {
			from = days[0].Date
		}
		if to.IsZero() {
			to = days[len(days)-1].Date
		}
	}

	view := &View{
		DatasetID:             ds.ID,
		Filter:                state,
		Records:               len(recs),
		Overview:              aggregate.NewOverview(days),
		Timeshare:             aggregate.NewTimeshare(recs),
		Daily:                 []aggregate.Day{},
		HeartPointsByExercise: aggregate.HeartPointsByExercise(recs),
		ExerciseMinutesByType: aggregate.ExerciseMinutesByType(recs),
		ActivityDistribution:  aggregate.ActivityDistribution(recs),
		CalorieChanges:        aggregate.CalorieChanges(days),
		Locations:             aggregate.LocationBreakdown(recs),
		PersonalRecords:       stats.PersonalRecords(days, recordMetrics...),
		Goals: []stats.GoalProgress{
			stats.NewGoalProgress(days, aggregate.MetricSteps, s.goals.Steps),
			stats.NewGoalProgress(days, aggregate.MetricHeartPoints, s.goals.HeartPoints),
		},
		// streaks are about the whole history, not the selected window
		Streaks: stats.NewActivityStreaks(ds.Records, s.now()),
	}

	if !from.IsZero() && !to.IsZero() {
		view.Daily = aggregate.Backbone(days, from, to)
	}

	view.Hourly, err = aggregate.Aggregate(recs, aggregate.GroupHour, []aggregate.Reducer{
		{Metric: aggregate.MetricSteps, Reduction: aggregate.ReductionMean},
		{Metric: aggregate.MetricExerciseMinutes, Reduction: aggregate.ReductionMean},
		{Metric: aggregate.MetricHeartPoints, Reduction: aggregate.ReductionMean},
	})
	if err != nil {
		return nil, err
	}
	view.Weekday, err = aggregate.Aggregate(recs, aggregate.GroupWeekday, []aggregate.Reducer{
		{Metric: aggregate.MetricSteps, Reduction: aggregate.ReductionMean},
		{Metric: aggregate.MetricCalories, Reduction: aggregate.ReductionMean},
		{Metric: aggregate.MetricExerciseMinutes, Reduction: aggregate.ReductionMean},
	})
	if err != nil {
		return nil, err
	}

	for _, m := range comparedMetrics {
		res := WeekComparisonResult{Metric: m}
		wc, cmpErr := aggregate.CompareWeeks(days, to, m)
		switch {
		case errors.Is(cmpErr, aggregate.ErrInsufficientData):
			res.Insufficient = true
			res.Reason = cmpErr.Error()
		case cmpErr != nil:
			return nil, cmpErr
		default:
			res.Comparison = wc
		}
		view.WeekComparisons = append(view.WeekComparisons, res)
	}

	log.Tracef("dashboard view [%s] computed over %d records", state.Key(), len(recs))
	return view, nil
}

// Records returns the records passing state, in input order.
func (s *Service) Records(ds *dataset.Dataset, state filter.State) ([]records.Record, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return filter.Apply(ds.Records, state), nil
}

// Aggregate groups the records passing state.
func (s *Service) Aggregate(
	ctx context.Context,
	ds *dataset.Dataset,
	state filter.State,
	key aggregate.GroupKey,
	reducers []aggregate.Reducer,
) (_ *aggregate.Table, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "dashboard.aggregate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("group", string(key)))

	if err := state.Validate(); err != nil {
		return nil, err
	}
	return aggregate.Aggregate(filter.Apply(ds.Records, state), key, reducers)
}

// Calendar is the yearly heatmap over the whole dataset; it ignores the filter.
func (s *Service) Calendar(ds *dataset.Dataset, year int, m aggregate.Metric) *aggregate.Heatmap {
	return aggregate.CalendarHeatmap(ds.Records, year, m)
}
