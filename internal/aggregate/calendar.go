package aggregate

import (
	"time"

	"github.com/2beens/fitdash/internal/records"
)

type CalendarDay struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Weekday int       `json:"weekday"` // 0 = Monday
	Week    int       `json:"week"`
}

// Heatmap is a full year of daily values, also pivoted into a
// weekday x week-of-year grid (Monday-start weeks, days before the first Monday in week 0).
type Heatmap struct {
	Year     int           `json:"year"`
	Metric   Metric        `json:"metric"`
	Days     []CalendarDay `json:"days"`
	Weekdays []string      `json:"weekdays"`
	// Grid[weekday][week]; cells outside the year are 0.
	Grid [][]float64 `json:"grid"`
}

// CalendarHeatmap always returns every day of the year, 365 or 366 entries.
func CalendarHeatmap(recs []records.Record, year int, m Metric) *Heatmap {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	days := Backbone(Daily(recs), from, to)

	weeks := records.WeekOfYear(to) + 1
	grid := make([][]float64, 7)
	for i := range grid {
		grid[i] = make([]float64, weeks)
	}

	h := &Heatmap{
		Year:     year,
		Metric:   m,
		Days:     make([]CalendarDay, 0, len(days)),
		Weekdays: records.WeekdayNames[:],
		Grid:     grid,
	}
	for _, d := range days {
		cd := CalendarDay{
			Date:    d.Date,
			Value:   d.Value(m),
			Weekday: records.MondayIndex(d.Date.Weekday()),
			Week:    records.WeekOfYear(d.Date),
		}
		h.Days = append(h.Days, cd)
		grid[cd.Weekday][cd.Week] = cd.Value
	}
	return h
}
