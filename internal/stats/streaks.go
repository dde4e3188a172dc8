package stats

import (
	"sort"
	"time"

	"github.com/2beens/fitdash/internal/aggregate"
	"github.com/2beens/fitdash/internal/records"
)

// ThresholdStreak counts, from the most recent day backward, the days whose
// metric is at least threshold, stopping at the first day below it.
// The days are walked in descending date order whatever order they come in;
// days missing from the table are not counted as failures.
func ThresholdStreak(days []aggregate.Day, m aggregate.Metric, threshold float64) int {
	sorted := make([]aggregate.Day, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	streak := 0
	for _, d := range sorted {
		if d.Value(m) < threshold {
			break
		}
		streak++
	}
	return streak
}

type ActivityStreaks struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// NewActivityStreaks works on the calendar days with any exercise.
// Current counts back from today (given, not read from the clock) while each
// day is active; Longest is the longest run of consecutive active days.
func NewActivityStreaks(recs []records.Record, today time.Time) ActivityStreaks {
	active := map[time.Time]struct{}{}
	for i := range recs {
		r := &recs[i]
		if r.HasDate() && r.TotalExerciseMinutes > 0 {
			active[r.Date] = struct{}{}
		}
	}

	var s ActivityStreaks
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	for d := today; ; d = d.AddDate(0, 0, -1) {
		if _, ok := active[d]; !ok {
			break
		}
		s.Current++
	}

	dates := make([]time.Time, 0, len(active))
	for d := range active {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	run := 0
	for i, d := range dates {
		if i > 0 && dates[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > s.Longest {
			s.Longest = run
		}
	}
	return s
}
