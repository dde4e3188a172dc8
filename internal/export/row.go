package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/fitdash/internal/records"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatParquet, "":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("%w: %q (expected parquet|csv)", ErrUnknownFormat, s)
}

func (f Format) Extension() string {
	return string(f)
}

// Row is one enriched record, flattened. Absent measures stay nil.
type Row struct {
	Date                 string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartTime            *string  `parquet:"name=start_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	EndTime              *string  `parquet:"name=end_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ActivityType         string   `parquet:"name=activity_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PrimaryActivity      string   `parquet:"name=primary_activity, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Location             string   `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Latitude             *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude            *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Steps                *float64 `parquet:"name=steps, type=DOUBLE, repetitiontype=OPTIONAL"`
	CaloriesKcal         *float64 `parquet:"name=calories_kcal, type=DOUBLE, repetitiontype=OPTIONAL"`
	DistanceM            *float64 `parquet:"name=distance_m, type=DOUBLE, repetitiontype=OPTIONAL"`
	HeartPoints          *float64 `parquet:"name=heart_points, type=DOUBLE, repetitiontype=OPTIONAL"`
	WalkingMs            *float64 `parquet:"name=walking_ms, type=DOUBLE, repetitiontype=OPTIONAL"`
	CyclingMs            *float64 `parquet:"name=cycling_ms, type=DOUBLE, repetitiontype=OPTIONAL"`
	PacedWalkingMs       *float64 `parquet:"name=paced_walking_ms, type=DOUBLE, repetitiontype=OPTIONAL"`
	RunningMs            *float64 `parquet:"name=running_ms, type=DOUBLE, repetitiontype=OPTIONAL"`
	TotalExerciseMinutes float64  `parquet:"name=total_exercise_minutes, type=DOUBLE"`
	Year                 int32    `parquet:"name=year, type=INT32"`
	Month                int32    `parquet:"name=month, type=INT32"`
	DayName              string   `parquet:"name=day_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ISOWeek              int32    `parquet:"name=iso_week, type=INT32"`
	IsWeekend            bool     `parquet:"name=is_weekend, type=BOOLEAN"`
}

// Columns is the CSV header, in Row field order.
var Columns = []string{
	"date", "start_time", "end_time",
	"activity_type", "primary_activity", "location",
	"latitude", "longitude",
	"steps", "calories_kcal", "distance_m", "heart_points",
	"walking_ms", "cycling_ms", "paced_walking_ms", "running_ms",
	"total_exercise_minutes",
	"year", "month", "day_name", "iso_week", "is_weekend",
}

func NewRow(r *records.Record) Row {
	row := Row{
		StartTime:            timeOfDay(r.StartTime),
		EndTime:              timeOfDay(r.EndTime),
		ActivityType:         r.ActivityType,
		PrimaryActivity:      r.PrimaryActivity,
		Location:             r.Location,
		Latitude:             r.Latitude,
		Longitude:            r.Longitude,
		Steps:                r.StepCount,
		CaloriesKcal:         r.CaloriesKcal,
		DistanceM:            r.DistanceM,
		HeartPoints:          r.HeartPoints,
		WalkingMs:            duration(r, "Walking"),
		CyclingMs:            duration(r, "Cycling"),
		PacedWalkingMs:       duration(r, "Paced Walking"),
		RunningMs:            duration(r, "Running"),
		TotalExerciseMinutes: r.TotalExerciseMinutes,
		Year:                 int32(r.Year),
		Month:                int32(r.Month),
		DayName:              r.DayName,
		ISOWeek:              int32(r.ISOWeek),
		IsWeekend:            r.IsWeekend,
	}
	if r.HasDate() {
		row.Date = r.Date.Format("2006-01-02")
	}
	return row
}

func timeOfDay(t *records.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func duration(r *records.Record, activity string) *float64 {
	d, ok := r.Duration(activity)
	if !ok {
		return nil
	}
	return &d
}
