package aggregate

import (
	"fmt"
	"sort"

	"github.com/2beens/fitdash/internal/records"
)

type GroupKey string

const (
	GroupDate     GroupKey = "date"
	GroupLocation GroupKey = "location"
	GroupHour     GroupKey = "hour"
	GroupWeekday  GroupKey = "weekday"
	GroupISOWeek  GroupKey = "isoWeek"
)

const dateLayout = "2006-01-02"

func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(s) {
	case GroupDate, GroupLocation, GroupHour, GroupWeekday, GroupISOWeek:
		return GroupKey(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGroupKey, s)
}

type Row struct {
	Key    string             `json:"key"`
	Values map[string]float64 `json:"values"`
}

// Table is the result of Aggregate: one row per group, one value per reducer, keyed by Reducer.Name.
type Table struct {
	GroupKey GroupKey `json:"groupKey"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
}

// Value returns the cell for the group and column, 0 when missing.
func (t *Table) Value(key, column string) float64 {
	for _, r := range t.Rows {
		if r.Key == key {
			return r.Values[column]
		}
	}
	return 0
}

// Aggregate groups records and reduces each requested metric.
//
// Measures are first summed per (date, group). A sum reducer adds those up; a
// mean reducer averages them, so "mean steps" is the mean daily total and a day
// split into many short rows weighs the same as a day with one long row.
// Hour and weekday tables always hold the full 24 / 7 rows, missing groups as 0.
// Records that have no value for the group key (no date, no start time) are left out.
func Aggregate(recs []records.Record, key GroupKey, reducers []Reducer) (*Table, error) {
	if _, err := ParseGroupKey(string(key)); err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(reducers))
	var metrics []Metric
	seenMetric := map[Metric]bool{}
	for _, r := range reducers {
		if _, err := ParseMetric(string(r.Metric)); err != nil {
			return nil, err
		}
		if _, err := ParseReduction(string(r.Reduction)); err != nil {
			return nil, err
		}
		columns = append(columns, r.Name())
		if !seenMetric[r.Metric] {
			seenMetric[r.Metric] = true
			metrics = append(metrics, r.Metric)
		}
	}

	// group -> day -> metric -> sum
	buckets := map[string]map[string]map[Metric]float64{}
	for i := range recs {
		r := &recs[i]
		group, ok := groupOf(r, key)
		if !ok {
			continue
		}
		day := ""
		if r.HasDate() {
			day = r.Date.Format(dateLayout)
		}
		byDay, ok := buckets[group]
		if !ok {
			byDay = map[string]map[Metric]float64{}
			buckets[group] = byDay
		}
		sums, ok := byDay[day]
		if !ok {
			sums = map[Metric]float64{}
			byDay[day] = sums
		}
		for _, m := range metrics {
			sums[m] += m.Value(r)
		}
	}

	t := &Table{
		GroupKey: key,
		Columns:  columns,
	}
	for _, group := range domain(key, buckets) {
		row := Row{
			Key:    group,
			Values: make(map[string]float64, len(reducers)),
		}
		byDay := buckets[group]
		for _, red := range reducers {
			total := 0.0
			for _, sums := range byDay {
				total += sums[red.Metric]
			}
			v := total
			if red.Reduction == ReductionMean {
				v = 0
				if len(byDay) > 0 {
					v = total / float64(len(byDay))
				}
			}
			row.Values[red.Name()] = v
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// HourKey is the group key of an hour of day in hour tables.
func HourKey(hour int) string {
	return fmt.Sprintf("%02d", hour)
}

func groupOf(r *records.Record, key GroupKey) (string, bool) {
	switch key {
	case GroupDate:
		if !r.HasDate() {
			return "", false
		}
		return r.Date.Format(dateLayout), true
	case GroupLocation:
		if r.Location == "" {
			return records.LocationUnknown, true
		}
		return r.Location, true
	case GroupHour:
		h, ok := r.HourOfDay()
		if !ok {
			return "", false
		}
		return HourKey(h), true
	case GroupWeekday:
		if !r.HasDate() {
			return "", false
		}
		return records.WeekdayNames[records.MondayIndex(r.Date.Weekday())], true
	case GroupISOWeek:
		if !r.HasDate() {
			return "", false
		}
		y, w := r.Date.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w), true
	}
	return "", false
}

func domain(key GroupKey, buckets map[string]map[string]map[Metric]float64) []string {
	switch key {
	case GroupHour:
		hours := make([]string, 24)
		for h := range hours {
			hours[h] = HourKey(h)
		}
		return hours
	case GroupWeekday:
		return records.WeekdayNames[:]
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
