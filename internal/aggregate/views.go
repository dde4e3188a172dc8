package aggregate

import (
	"sort"
	"time"

	"github.com/2beens/fitdash/internal/records"
)

type Overview struct {
	Days                    int     `json:"days"`
	AvgDailySteps           float64 `json:"avgDailySteps"`
	AvgDailyExerciseMinutes float64 `json:"avgDailyExerciseMinutes"`
	AvgDailyCalories        float64 `json:"avgDailyCalories"`
	AvgDailyHeartPoints     float64 `json:"avgDailyHeartPoints"`
	TotalSteps              float64 `json:"totalSteps"`
	TotalDistanceKm         float64 `json:"totalDistanceKm"`
	TotalCalories           float64 `json:"totalCalories"`
	TotalHeartPoints        float64 `json:"totalHeartPoints"`
	TotalExerciseMinutes    float64 `json:"totalExerciseMinutes"`
}

// NewOverview computes the headline numbers. Averages are over days with data.
func NewOverview(days []Day) Overview {
	return Overview{
		Days:                    len(days),
		AvgDailySteps:           MeanDaily(days, MetricSteps),
		AvgDailyExerciseMinutes: MeanDaily(days, MetricExerciseMinutes),
		AvgDailyCalories:        MeanDaily(days, MetricCalories),
		AvgDailyHeartPoints:     MeanDaily(days, MetricHeartPoints),
		TotalSteps:              SumDaily(days, MetricSteps),
		TotalDistanceKm:         SumDaily(days, MetricDistance) / 1000,
		TotalCalories:           SumDaily(days, MetricCalories),
		TotalHeartPoints:        SumDaily(days, MetricHeartPoints),
		TotalExerciseMinutes:    SumDaily(days, MetricExerciseMinutes),
	}
}

type Timeshare struct {
	ActiveHours   float64 `json:"activeHours"`
	InactiveHours float64 `json:"inactiveHours"`
}

// NewTimeshare splits the hours of the days spanned by recs (first to last
// recorded date, not the selected range) into active (summed activity
// durations) and the rest. Inactive time never goes below 0.
func NewTimeshare(recs []records.Record) Timeshare {
	active := 0.0
	var from, to time.Time
	for i := range recs {
		r := &recs[i]
		active += r.TotalExerciseMinutes / 60
		if !r.HasDate() {
			continue
		}
		if from.IsZero() || r.Date.Before(from) {
			from = r.Date
		}
		if to.IsZero() || r.Date.After(to) {
			to = r.Date
		}
	}
	daysInRange := 0
	if !from.IsZero() {
		daysInRange = len(Backbone(nil, from, to))
	}
	inactive := float64(daysInRange)*24 - active
	if inactive < 0 {
		inactive = 0
	}
	return Timeshare{
		ActiveHours:   active,
		InactiveHours: inactive,
	}
}

// ActivityDayValue is one bar segment of a per-day, per-activity chart.
type ActivityDayValue struct {
	Date     time.Time `json:"date"`
	Activity string    `json:"activity"`
	Value    float64   `json:"value"`
}

// HeartPointsByExercise splits each record's heart points across its
// activities in proportion to their durations. Heart points on a record
// without any activity duration belong to no exercise and are left out.
func HeartPointsByExercise(recs []records.Record) []ActivityDayValue {
	acc := newActivityDayAccumulator()
	for i := range recs {
		r := &recs[i]
		hp := r.Heart()
		if !r.HasDate() || hp == 0 {
			continue
		}
		total := 0.0
		for _, a := range records.Activities {
			total += r.DurationOrZero(a.Name)
		}
		if total == 0 {
			continue
		}
		for _, a := range records.Activities {
			if d := r.DurationOrZero(a.Name); d > 0 {
				acc.add(r.Date, a.Name, hp*d/total)
			}
		}
	}
	return acc.values()
}

// ExerciseMinutesByType sums minutes per day and activity.
func ExerciseMinutesByType(recs []records.Record) []ActivityDayValue {
	acc := newActivityDayAccumulator()
	for i := range recs {
		r := &recs[i]
		if !r.HasDate() {
			continue
		}
		for _, a := range records.Activities {
			if d := r.DurationOrZero(a.Name); d > 0 {
				acc.add(r.Date, a.Name, d/60000)
			}
		}
	}
	return acc.values()
}

type activityDayKey struct {
	date     time.Time
	activity string
}

type activityDayAccumulator struct {
	sums  map[activityDayKey]float64
	order map[string]int
}

func newActivityDayAccumulator() *activityDayAccumulator {
	order := map[string]int{}
	for i, a := range records.Activities {
		order[a.Name] = i
	}
	order[records.ActivityInactive] = len(records.Activities)
	return &activityDayAccumulator{
		sums:  map[activityDayKey]float64{},
		order: order,
	}
}

func (a *activityDayAccumulator) add(date time.Time, activity string, v float64) {
	a.sums[activityDayKey{date: date, activity: activity}] += v
}

// values are sorted by date, then by activity declaration order.
func (a *activityDayAccumulator) values() []ActivityDayValue {
	out := make([]ActivityDayValue, 0, len(a.sums))
	for k, v := range a.sums {
		out = append(out, ActivityDayValue{Date: k.date, Activity: k.activity, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return a.order[out[i].Activity] < a.order[out[j].Activity]
	})
	return out
}

type ActivityTotal struct {
	Activity string  `json:"activity"`
	Minutes  float64 `json:"minutes"`
	Share    float64 `json:"share"`
}

// ActivityDistribution is the total minutes per activity, in declaration order.
// Activities never performed are left out.
func ActivityDistribution(recs []records.Record) []ActivityTotal {
	minutes := make([]float64, len(records.Activities))
	total := 0.0
	for i := range recs {
		for j, a := range records.Activities {
			m := recs[i].DurationOrZero(a.Name) / 60000
			minutes[j] += m
			total += m
		}
	}

	out := make([]ActivityTotal, 0, len(records.Activities))
	for j, a := range records.Activities {
		if minutes[j] == 0 {
			continue
		}
		out = append(out, ActivityTotal{
			Activity: a.Name,
			Minutes:  minutes[j],
			Share:    minutes[j] / total,
		})
	}
	return out
}

// WaterfallStep is one bar of the calorie waterfall: the first step is the
// absolute total of the first day, the rest are day-over-day changes.
type WaterfallStep struct {
	Date     time.Time `json:"date"`
	Delta    float64   `json:"delta"`
	Total    float64   `json:"total"`
	Absolute bool      `json:"absolute"`
}

func CalorieChanges(days []Day) []WaterfallStep {
	out := make([]WaterfallStep, 0, len(days))
	for i, d := range days {
		step := WaterfallStep{
			Date:  d.Date,
			Total: d.Calories,
		}
		if i == 0 {
			step.Delta = d.Calories
			step.Absolute = true
		} else {
			step.Delta = d.Calories - days[i-1].Calories
		}
		out = append(out, step)
	}
	return out
}
