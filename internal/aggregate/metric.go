package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/fitdash/internal/records"
)

var (
	ErrUnknownMetric    = errors.New("unknown metric")
	ErrUnknownGroupKey  = errors.New("unknown group key")
	ErrUnknownReduction = errors.New("unknown reduction")
	// ErrInsufficientData marks a view whose inputs cannot give a meaningful answer,
	// e.g. a comparison against an empty or zero baseline.
	ErrInsufficientData = errors.New("insufficient data for this view")
)

type Metric string

const (
	MetricSteps           Metric = "steps"
	MetricCalories        Metric = "calories"
	MetricDistance        Metric = "distance"
	MetricHeartPoints     Metric = "heartPoints"
	MetricExerciseMinutes Metric = "exerciseMinutes"
)

var Metrics = []Metric{
	MetricSteps,
	MetricCalories,
	MetricDistance,
	MetricHeartPoints,
	MetricExerciseMinutes,
}

func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Value reads the metric from a record, absent as 0.
func (m Metric) Value(r *records.Record) float64 {
	switch m {
	case MetricSteps:
		return r.Steps()
	case MetricCalories:
		return r.Calories()
	case MetricDistance:
		return r.Distance()
	case MetricHeartPoints:
		return r.Heart()
	case MetricExerciseMinutes:
		return r.TotalExerciseMinutes
	}
	return 0
}

type Reduction string

const (
	ReductionSum  Reduction = "sum"
	ReductionMean Reduction = "mean"
)

func ParseReduction(s string) (Reduction, error) {
	switch Reduction(s) {
	case ReductionSum, ReductionMean:
		return Reduction(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReduction, s)
}

// Reducer is one output column: a metric reduced over a group.
type Reducer struct {
	Metric    Metric    `json:"metric"`
	Reduction Reduction `json:"reduction"`
}

func (r Reducer) Name() string {
	return fmt.Sprintf("%s_%s", r.Metric, r.Reduction)
}

// ParseReducer accepts "metric" (sum) or "metric:reduction".
func ParseReducer(s string) (Reducer, error) {
	metricPart, reductionPart, found := strings.Cut(s, ":")
	if !found {
		reductionPart = string(ReductionSum)
	}
	m, err := ParseMetric(metricPart)
	if err != nil {
		return Reducer{}, err
	}
	red, err := ParseReduction(reductionPart)
	if err != nil {
		return Reducer{}, err
	}
	return Reducer{Metric: m, Reduction: red}, nil
}
