package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitdash/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	viewCacheHit  = "hit"
	viewCacheMiss = "miss"
	megabyte      = 1024 * 1024
)

// ViewCache memoizes rendered view bodies. Keys carry the dataset ID, so
// a reload makes old entries unreachable; Clear drops them right away.
type ViewCache struct {
	cache          *freecache.Cache
	expireSec      int
	metricsManager *metrics.Manager
}

func NewViewCache(sizeMB int, expire time.Duration, metricsManager *metrics.Manager) *ViewCache {
	return &ViewCache{
		cache:          freecache.NewCache(sizeMB * megabyte),
		expireSec:      int(expire / time.Second),
		metricsManager: metricsManager,
	}
}

func ViewKey(datasetID uuid.UUID, view, filterKey string) string {
	return fmt.Sprintf("%s::%s::%s", datasetID, view, filterKey)
}

func (c *ViewCache) Get(key string) ([]byte, bool) {
	body, err := c.cache.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			log.Errorf("view cache get [%s]: %s", key, err)
		}
		c.metricsManager.CounterViewCache.WithLabelValues(viewCacheMiss).Inc()
		return nil, false
	}
	c.metricsManager.CounterViewCache.WithLabelValues(viewCacheHit).Inc()
	return body, true
}

// Set stores body; entries too large for the cache are skipped.
func (c *ViewCache) Set(key string, body []byte) {
	err := c.cache.Set([]byte(key), body, c.expireSec)
	if errors.Is(err, freecache.ErrLargeEntry) {
		log.Tracef("view cache: %s too large to cache (%d bytes)", key, len(body))
		return
	}
	if err != nil {
		log.Errorf("view cache set [%s]: %s", key, err)
	}
}

func (c *ViewCache) Clear() {
	log.Debugf("view cache: clearing %d entries", c.cache.EntryCount())
	c.cache.Clear()
}

func (c *ViewCache) Len() int64 {
	return c.cache.EntryCount()
}
