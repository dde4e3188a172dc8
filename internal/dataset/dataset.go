package dataset

import (
	"errors"
	"time"

	"github.com/2beens/fitdash/internal/geocode"
	"github.com/2beens/fitdash/internal/records"

	"github.com/google/uuid"
)

var ErrNotLoaded = errors.New("dataset not loaded")

// Dataset is one fully enriched load of the input file. It is read only once
// returned by the Loader; views derive new slices from it and never mutate it.
type Dataset struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time
	Records  []records.Record
	// Rows counts the data rows read, Dropped those without any usable field,
	// Undated the kept ones without a parseable date.
	Rows    int
	Dropped int
	Undated int
	// Locations is the resolved place for every grid cell seen in this load.
	Locations map[geocode.Key]string
	Geocoded  bool
}

// DateRange returns the first and last record dates; false when no record has a date.
func (d *Dataset) DateRange() (time.Time, time.Time, bool) {
	var first, last time.Time
	for i := range d.Records {
		r := &d.Records[i]
		if !r.HasDate() {
			continue
		}
		if first.IsZero() || r.Date.Before(first) {
			first = r.Date
		}
		if last.IsZero() || r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, !first.IsZero()
}

func (d *Dataset) Len() int {
	return len(d.Records)
}
