package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2beens/fitdash/internal/records"
)

const dateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid date range")

// State is the user's current selection. Both date bounds are inclusive; a zero
// bound is open. An empty activity selection matches nothing.
type State struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Activities []string  `json:"activities"`
	Locations  []string  `json:"locations"`
}

func (s State) Validate() error {
	if !s.From.IsZero() && !s.To.IsZero() && s.From.After(s.To) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidRange, s.From.Format(dateLayout), s.To.Format(dateLayout))
	}
	return nil
}

// Key is a canonical form of the state, independent of selection order.
func (s State) Key() string {
	activities := append([]string(nil), s.Activities...)
	locations := append([]string(nil), s.Locations...)
	sort.Strings(activities)
	sort.Strings(locations)
	return fmt.Sprintf("%s|%s|%s|%s",
		formatDate(s.From),
		formatDate(s.To),
		strings.Join(activities, ";"),
		strings.Join(locations, ";"),
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format(dateLayout)
}

// Apply returns the records passing the date, activity and location predicates.
// The input is not modified.
func Apply(recs []records.Record, s State) []records.Record {
	locations := make(map[string]struct{}, len(s.Locations))
	for _, l := range s.Locations {
		locations[l] = struct{}{}
	}

	out := make([]records.Record, 0)
	for i := range recs {
		r := &recs[i]
		if !MatchDate(r, s.From, s.To) ||
			!MatchActivity(r, s.Activities) ||
			!matchLocation(r, locations) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

// MatchDate reports whether the record date lies within [from, to].
// Records without a date only pass a fully open range.
func MatchDate(r *records.Record, from, to time.Time) bool {
	if !r.HasDate() {
		return from.IsZero() && to.IsZero()
	}
	if !from.IsZero() && r.Date.Before(from) {
		return false
	}
	if !to.IsZero() && r.Date.After(to) {
		return false
	}
	return true
}

// MatchActivity is a substring match of any selected activity against the
// record's joined activity label, so "Walking" also matches "Paced Walking".
func MatchActivity(r *records.Record, activities []string) bool {
	for _, a := range activities {
		if a != "" && strings.Contains(r.ActivityType, a) {
			return true
		}
	}
	return false
}

// MatchLocation passes records in the selected set and, always, records
// with an unknown location.
func MatchLocation(r *records.Record, locations []string) bool {
	set := make(map[string]struct{}, len(locations))
	for _, l := range locations {
		set[l] = struct{}{}
	}
	return matchLocation(r, set)
}

func matchLocation(r *records.Record, locations map[string]struct{}) bool {
	if r.Location == records.LocationUnknown {
		return true
	}
	_, ok := locations[r.Location]
	return ok
}
