package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/2beens/fitdash/internal/geocode"
	"github.com/2beens/fitdash/internal/records"
	"github.com/2beens/fitdash/internal/telemetry/metrics"
	"github.com/2beens/fitdash/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type LoaderParams struct {
	Reverser         geocode.Reverser
	GeocodingEnabled bool
	GeocodeTimeout   time.Duration
	Delimiter        rune
	MetricsManager   *metrics.Manager
}

// Loader runs the load pipeline: parse, classify, geocode, derive.
type Loader struct {
	reverser         geocode.Reverser
	geocodingEnabled bool
	geocodeTimeout   time.Duration
	delimiter        rune
	metricsManager   *metrics.Manager
}

func NewLoader(params LoaderParams) *Loader {
	delimiter := params.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	return &Loader{
		reverser:         params.Reverser,
		geocodingEnabled: params.GeocodingEnabled,
		geocodeTimeout:   params.GeocodeTimeout,
		delimiter:        delimiter,
		metricsManager:   params.MetricsManager,
	}
}

func (l *Loader) LoadFile(ctx context.Context, path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		l.metricsManager.CounterDatasetLoads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f, path)
}

func (l *Loader) Load(ctx context.Context, r io.Reader, source string) (_ *Dataset, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dataset.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("dataset.source", source))

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		l.metricsManager.CounterDatasetLoads.WithLabelValues(status).Inc()
	}()

	parsed, err := records.Parse(r, l.delimiter)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	recs := parsed.Records

	records.Classify(recs)

	// a new resolver per load: its location cache lives exactly as long as this dataset
	resolver := geocode.NewResolver(l.reverser, l.geocodingEnabled, l.geocodeTimeout, l.metricsManager)
	var coords []geocode.Coordinate
	for i := range recs {
		if recs[i].HasCoordinates() {
			coords = append(coords, geocode.Coordinate{Lat: *recs[i].Latitude, Lon: *recs[i].Longitude})
		}
	}
	places := resolver.ResolveMany(ctx, coords)
	for i := range recs {
		rec := &recs[i]
		if !rec.HasCoordinates() {
			rec.Location = records.LocationUnknown
			continue
		}
		rec.Location = places[geocode.KeyFor(*rec.Latitude, *rec.Longitude)]
	}

	records.Derive(recs)

	ds := &Dataset{
		ID:        uuid.New(),
		Source:    source,
		LoadedAt:  time.Now(),
		Records:   recs,
		Rows:      parsed.Rows,
		Dropped:   parsed.Dropped,
		Undated:   parsed.Undated,
		Locations: places,
		Geocoded:  resolver.Enabled(),
	}

	elapsed := time.Since(start)
	l.metricsManager.HistDatasetLoadDuration.Observe(elapsed.Seconds())
	l.metricsManager.GaugeDatasetRows.Set(float64(len(recs)))
	l.metricsManager.GaugeLocationKeys.Set(float64(len(places)))
	span.SetAttributes(
		attribute.String("dataset.id", ds.ID.String()),
		attribute.Int("dataset.records", len(recs)),
		attribute.Int("dataset.locations", len(places)),
	)
	log.Infof("dataset [%s] loaded from %s in %s: %d records (%d dropped), %d location cells",
		ds.ID, source, elapsed, len(recs), parsed.Dropped, len(places))

	return ds, nil
}
