package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/2beens/fitdash/internal/records"
)

// WriteCSV writes the enriched records with a header row. Absent values are empty cells.
func WriteCSV(w io.Writer, recs []records.Record) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(Columns); err != nil {
		return err
	}
	for i := range recs {
		row := NewRow(&recs[i])
		if err := csvWriter.Write(row.csvFields()); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func (r Row) csvFields() []string {
	return []string{
		r.Date, stringOrEmpty(r.StartTime), stringOrEmpty(r.EndTime),
		r.ActivityType, r.PrimaryActivity, r.Location,
		floatOrEmpty(r.Latitude), floatOrEmpty(r.Longitude),
		floatOrEmpty(r.Steps), floatOrEmpty(r.CaloriesKcal), floatOrEmpty(r.DistanceM), floatOrEmpty(r.HeartPoints),
		floatOrEmpty(r.WalkingMs), floatOrEmpty(r.CyclingMs), floatOrEmpty(r.PacedWalkingMs), floatOrEmpty(r.RunningMs),
		strconv.FormatFloat(r.TotalExerciseMinutes, 'f', -1, 64),
		intOrEmpty(r.Year), intOrEmpty(r.Month), r.DayName, intOrEmpty(r.ISOWeek),
		strconv.FormatBool(r.IsWeekend),
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// calendar fields are zero for undated records
func intOrEmpty(v int32) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(int(v))
}
