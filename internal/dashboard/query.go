package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitdash/internal/aggregate"
	"github.com/2beens/fitdash/internal/filter"
)

const queryDateLayout = "2006-01-02"

var ErrBadQuery = errors.New("bad query")

// ParseFilterQuery builds a filter state from from, to, activity and location.
// An absent parameter keeps the default; a present but empty one clears it
// (an open date bound, an empty selection).
func ParseFilterQuery(q url.Values, defaults filter.State) (filter.State, error) {
	state := defaults

	var err error
	if vals, ok := q["from"]; ok {
		if state.From, err = parseQueryDate("from", vals); err != nil {
			return filter.State{}, err
		}
	}
	if vals, ok := q["to"]; ok {
		if state.To, err = parseQueryDate("to", vals); err != nil {
			return filter.State{}, err
		}
	}
	if vals, ok := q["activity"]; ok {
		state.Activities = nonEmpty(vals)
	}
	if vals, ok := q["location"]; ok {
		state.Locations = nonEmpty(vals)
	}

	if err := state.Validate(); err != nil {
		return filter.State{}, err
	}
	return state, nil
}

func parseQueryDate(name string, vals []string) (time.Time, error) {
	v := strings.TrimSpace(vals[len(vals)-1])
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(queryDateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got [%s]", ErrBadQuery, name, v)
	}
	return d, nil
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseAggregateQuery reads group (default date) and one or more metric
// parameters in the metric[:reduction] form (default steps:sum).
func ParseAggregateQuery(q url.Values) (aggregate.GroupKey, []aggregate.Reducer, error) {
	group := aggregate.GroupDate
	if g := q.Get("group"); g != "" {
		parsed, err := aggregate.ParseGroupKey(g)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrBadQuery, err)
		}
		group = parsed
	}

	metricParams := nonEmpty(q["metric"])
	if len(metricParams) == 0 {
		metricParams = []string{string(aggregate.MetricSteps)}
	}
	reducers := make([]aggregate.Reducer, 0, len(metricParams))
	for _, p := range metricParams {
		red, err := aggregate.ParseReducer(p)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrBadQuery, err)
		}
		reducers = append(reducers, red)
	}
	return group, reducers, nil
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("%w: invalid year [%s]", ErrBadQuery, s)
	}
	return year, nil
}
