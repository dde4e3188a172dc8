package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/fitdash/internal/telemetry/metrics"
	"github.com/2beens/fitdash/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// RedisCachedReverser keeps reverse geocoding answers in redis across dataset
// loads and process restarts. Only successful answers are stored.
type RedisCachedReverser struct {
	next           Reverser
	redisClient    *redis.Client
	ttl            time.Duration
	metricsManager *metrics.Manager
}

func NewRedisCachedReverser(
	next Reverser,
	redisClient *redis.Client,
	ttl time.Duration,
	metricsManager *metrics.Manager,
) *RedisCachedReverser {
	return &RedisCachedReverser{
		next:           next,
		redisClient:    redisClient,
		ttl:            ttl,
		metricsManager: metricsManager,
	}
}

func RedisKey(key Key) string {
	return fmt.Sprintf("geocode::%d::%d", key.Lat, key.Lon)
}

func (r *RedisCachedReverser) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redisReverser.reverse")
	defer span.End()

	cacheKey := RedisKey(KeyFor(lat, lon))
	cmd := r.redisClient.Get(ctx, cacheKey)
	if err := cmd.Err(); err != nil && err != redis.Nil {
		log.Errorf("failed to get cached address from redis for [%s]: %s", cacheKey, err)
	}

	if cached := cmd.Val(); cached != "" {
		addr := &Address{}
		if err := json.Unmarshal([]byte(cached), addr); err == nil {
			span.SetAttributes(attribute.Bool("geocode.from-cache", true))
			r.metricsManager.CounterGeocodeCacheHits.WithLabelValues(metrics.CacheTierRedis).Inc()
			log.Tracef("found address for [%s] in redis", cacheKey)
			return addr, nil
		} else {
			log.Errorf("failed to unmarshal cached address from redis for [%s]: %s", cacheKey, err)
		}
	}
	span.SetAttributes(attribute.Bool("geocode.from-cache", false))

	addr, err := r.next.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	addrBytes, err := json.Marshal(addr)
	if err != nil {
		log.Errorf("failed to marshal address for [%s]: %s", cacheKey, err)
		return addr, nil
	}
	if err := r.redisClient.Set(ctx, cacheKey, addrBytes, r.ttl).Err(); err != nil {
		log.Errorf("failed to cache address in redis for [%s]: %s", cacheKey, err)
	} else {
		log.Debugf("address cache set in redis for [%s]", cacheKey)
	}

	return addr, nil
}
