package geocode

import (
	"context"
	"time"

	"github.com/2beens/fitdash/internal/telemetry/metrics"
	"github.com/2beens/fitdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Resolver maps coordinates to place strings. It never fails: any lookup error
// or timeout yields the cell's fallback string. A Resolver owns its LocationCache,
// so one is created per loaded dataset and dropped with it.
type Resolver struct {
	reverser       Reverser
	cache          *LocationCache
	enabled        bool
	timeout        time.Duration
	metricsManager *metrics.Manager
}

func NewResolver(
	reverser Reverser,
	enabled bool,
	timeout time.Duration,
	metricsManager *metrics.Manager,
) *Resolver {
	if reverser == nil {
		enabled = false
	}
	return &Resolver{
		reverser:       reverser,
		cache:          NewLocationCache(),
		enabled:        enabled,
		timeout:        timeout,
		metricsManager: metricsManager,
	}
}

func (r *Resolver) Cache() *LocationCache {
	return r.cache
}

func (r *Resolver) Enabled() bool {
	return r.enabled
}

// Resolve returns the place for the grid cell containing lat/lon.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) string {
	return r.resolveKey(ctx, KeyFor(lat, lon))
}

// ResolveMany resolves every distinct grid cell among coords exactly once,
// in first-seen order, and returns the place for each cell.
func (r *Resolver) ResolveMany(ctx context.Context, coords []Coordinate) map[Key]string {
	ctx, span := tracing.GlobalTracer.Start(ctx, "geocode.resolveMany")
	defer span.End()

	seen := make(map[Key]struct{}, len(coords))
	var keys []Key
	for _, c := range coords {
		k := c.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	span.SetAttributes(
		attribute.Int("geocode.coordinates", len(coords)),
		attribute.Int("geocode.keys", len(keys)),
		attribute.Bool("geocode.enabled", r.enabled),
	)
	log.Debugf("geocode: resolving %d distinct cells for %d coordinates", len(keys), len(coords))

	places := make(map[Key]string, len(keys))
	for _, k := range keys {
		places[k] = r.resolveKey(ctx, k)
	}
	return places
}

func (r *Resolver) resolveKey(ctx context.Context, key Key) string {
	if place, ok := r.cache.Get(key); ok {
		r.metricsManager.CounterGeocodeCacheHits.WithLabelValues(metrics.CacheTierSession).Inc()
		return place
	}

	if !r.enabled {
		r.metricsManager.CounterGeocodeLookups.WithLabelValues(metrics.GeocodeOutcomeDisabled).Inc()
		place := key.Fallback()
		r.cache.Set(key, place)
		return place
	}

	place := r.lookup(ctx, key)
	r.cache.Set(key, place)
	return place
}

func (r *Resolver) lookup(ctx context.Context, key Key) string {
	lookupCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// the cell's own coordinates, not the raw point, so every point of a cell gets the same answer
	addr, err := r.reverser.Reverse(lookupCtx, key.Latitude(), key.Longitude())
	if err != nil || addr == nil {
		r.metricsManager.CounterGeocodeLookups.WithLabelValues(metrics.GeocodeOutcomeFailed).Inc()
		log.Debugf("geocode: lookup for [%s] failed, using fallback: %v", key, err)
		return key.Fallback()
	}

	r.metricsManager.CounterGeocodeLookups.WithLabelValues(metrics.GeocodeOutcomeResolved).Inc()
	place := addr.Place()
	log.Tracef("geocode: [%s] -> %s", key, place)
	return place
}
