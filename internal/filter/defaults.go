package filter

import (
	"sort"
	"time"

	"github.com/2beens/fitdash/internal/records"
)

// DefaultState selects the most recent Monday-start week present in the data
// (clipped to the first recorded day), every activity option and every location.
func DefaultState(recs []records.Record) State {
	s := State{
		Activities: ActivityOptions(recs),
		Locations:  LocationOptions(recs),
	}

	var first, last time.Time
	for i := range recs {
		d := recs[i].Date
		if !recs[i].HasDate() {
			continue
		}
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}
	if last.IsZero() {
		return s
	}

	weekStart := last.AddDate(0, 0, -records.MondayIndex(last.Weekday()))
	if weekStart.Before(first) {
		weekStart = first
	}
	s.From = weekStart
	s.To = last
	return s
}

// ActivityOptions lists the distinct activity names found in record labels,
// without "Inactive", sorted.
func ActivityOptions(recs []records.Record) []string {
	seen := map[string]struct{}{}
	for i := range recs {
		for _, a := range records.SplitActivityType(recs[i].ActivityType) {
			if a == "" || a == records.ActivityInactive {
				continue
			}
			seen[a] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// LocationOptions lists the distinct resolved locations, without "Unknown", sorted.
func LocationOptions(recs []records.Record) []string {
	seen := map[string]struct{}{}
	for i := range recs {
		l := recs[i].Location
		if l == "" || l == records.LocationUnknown {
			continue
		}
		seen[l] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
