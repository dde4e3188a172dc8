package stats

import (
	"time"

	"github.com/2beens/fitdash/internal/aggregate"
)

type PersonalRecord struct {
	Metric aggregate.Metric `json:"metric"`
	Date   time.Time        `json:"date"`
	Value  float64          `json:"value"`
}

// NewPersonalRecord returns the day with the highest value of the metric.
// On ties the earliest such day wins. False when there are no days.
func NewPersonalRecord(days []aggregate.Day, m aggregate.Metric) (PersonalRecord, bool) {
	if len(days) == 0 {
		return PersonalRecord{}, false
	}

	best := PersonalRecord{Metric: m, Date: days[0].Date, Value: days[0].Value(m)}
	for _, d := range days[1:] {
		v := d.Value(m)
		if v > best.Value || (v == best.Value && d.Date.Before(best.Date)) {
			best.Date = d.Date
			best.Value = v
		}
	}
	return best, true
}

// PersonalRecords returns one record per metric, or none when there are no days.
func PersonalRecords(days []aggregate.Day, metrics ...aggregate.Metric) []PersonalRecord {
	out := make([]PersonalRecord, 0, len(metrics))
	for _, m := range metrics {
		if pr, ok := NewPersonalRecord(days, m); ok {
			out = append(out, pr)
		}
	}
	return out
}
