package aggregate

import (
	"sort"
	"time"

	"github.com/2beens/fitdash/internal/records"
)

// Day holds the per-day sums of every metric.
type Day struct {
	Date            time.Time `json:"date"`
	Steps           float64   `json:"steps"`
	Calories        float64   `json:"calories"`
	Distance        float64   `json:"distance"`
	HeartPoints     float64   `json:"heartPoints"`
	ExerciseMinutes float64   `json:"exerciseMinutes"`
	Records         int       `json:"records"`
}

func (d Day) Value(m Metric) float64 {
	switch m {
	case MetricSteps:
		return d.Steps
	case MetricCalories:
		return d.Calories
	case MetricDistance:
		return d.Distance
	case MetricHeartPoints:
		return d.HeartPoints
	case MetricExerciseMinutes:
		return d.ExerciseMinutes
	}
	return 0
}

func (d *Day) add(r *records.Record) {
	d.Steps += r.Steps()
	d.Calories += r.Calories()
	d.Distance += r.Distance()
	d.HeartPoints += r.Heart()
	d.ExerciseMinutes += r.TotalExerciseMinutes
	d.Records++
}

// Daily sums records per date, ascending. Undated records are skipped.
func Daily(recs []records.Record) []Day {
	byDate := map[time.Time]*Day{}
	for i := range recs {
		r := &recs[i]
		if !r.HasDate() {
			continue
		}
		d, ok := byDate[r.Date]
		if !ok {
			d = &Day{Date: r.Date}
			byDate[r.Date] = d
		}
		d.add(r)
	}

	days := make([]Day, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// Backbone returns one Day for every calendar date in [from, to], taking sums
// from days and zero everywhere else.
func Backbone(days []Day, from, to time.Time) []Day {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return []Day{}
	}

	byDate := make(map[time.Time]Day, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}

	out := make([]Day, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if day, ok := byDate[d]; ok {
			out = append(out, day)
			continue
		}
		out = append(out, Day{Date: d})
	}
	return out
}

// MeanDaily is the mean of the per-day sums of a metric, 0 for no days.
func MeanDaily(days []Day, m Metric) float64 {
	if len(days) == 0 {
		return 0
	}
	return SumDaily(days, m) / float64(len(days))
}

func SumDaily(days []Day, m Metric) float64 {
	total := 0.0
	for _, d := range days {
		total += d.Value(m)
	}
	return total
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
