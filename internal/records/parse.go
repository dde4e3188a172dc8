package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrMissingColumns = errors.New("missing required columns")

type ParseResult struct {
	Records []Record
	// Rows is the number of data rows read, Dropped the ones with no usable field at all.
	Rows    int
	Dropped int
	// Undated rows were kept for their measures but have no parseable date.
	Undated int
}

// Parse reads the delimited export from r. Unparseable fields become absent and
// the row is kept; only a header lacking required columns is an error.
func Parse(r io.Reader, delimiter rune) (*ParseResult, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		colIndex[col] = i
	}

	var missing []string
	for _, col := range RequiredColumns() {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	res := &ParseResult{}
	line := 1
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// a malformed line (e.g. broken quoting) is one bad row, not a bad source
			log.Debugf("records: skipping malformed line %d: %s", line, err)
			res.Rows++
			res.Dropped++
			continue
		}
		res.Rows++

		rec, ok := parseRow(row, colIndex)
		if !ok {
			log.Tracef("records: dropping line %d, no usable field", line)
			res.Dropped++
			continue
		}
		if !rec.HasDate() {
			log.Tracef("records: line %d has no parseable date", line)
			res.Undated++
		}
		res.Records = append(res.Records, rec)
	}

	if res.Undated > 0 {
		log.Warnf("records: %d rows with measures have no parseable date, they are left out of date views", res.Undated)
	}
	log.Debugf("records: parsed %d rows, kept %d, dropped %d", res.Rows, len(res.Records), res.Dropped)
	return res, nil
}

func parseRow(row []string, colIndex map[string]int) (Record, bool) {
	field := func(col string) string {
		i := colIndex[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	rec := Record{
		DurationMs:   make(map[string]float64, len(Activities)),
		StartTime:    ParseTimeOfDay(field(ColStartTime)),
		EndTime:      ParseTimeOfDay(field(ColEndTime)),
		StepCount:    ParseMeasure(field(ColStepCount)),
		CaloriesKcal: ParseMeasure(field(ColCalories)),
		DistanceM:    ParseMeasure(field(ColDistance)),
		HeartPoints:  ParseMeasure(field(ColHeartPoints)),
		Latitude:     parseCoordinate(field(ColLatitude), 90),
		Longitude:    parseCoordinate(field(ColLongitude), 180),
	}
	if d, ok := ParseDate(field(ColDate)); ok {
		rec.Date = d
	}

	anyMeasure := rec.StepCount != nil || rec.CaloriesKcal != nil ||
		rec.DistanceM != nil || rec.HeartPoints != nil
	for _, a := range Activities {
		if d := ParseMeasure(field(a.Column)); d != nil {
			rec.DurationMs[a.Name] = *d
			anyMeasure = true
		}
	}

	if !rec.HasDate() && !anyMeasure {
		return Record{}, false
	}
	return rec, true
}

// ParseDate parses a day-first date and normalizes it to midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// ParseTimeOfDay returns nil when s is empty or not a valid time of day.
// The clock reading is kept as written; a zone offset, if any, is ignored.
func ParseTimeOfDay(s string) *TimeOfDay {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range TimeOfDayLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return &TimeOfDay{
			Hour:   t.Hour(),
			Minute: t.Minute(),
			Second: t.Second(),
			Millis: t.Nanosecond() / int(time.Millisecond),
		}
	}
	return nil
}

// ParseMeasure returns nil for empty, non-numeric, non-finite or negative input.
func ParseMeasure(s string) *float64 {
	v, ok := parseFloat(s)
	if !ok || v < 0 {
		return nil
	}
	return &v
}

func parseCoordinate(s string, limit float64) *float64 {
	v, ok := parseFloat(s)
	if !ok || math.Abs(v) > limit {
		return nil
	}
	return &v
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
