package geocode

import "sync"

// LocationCache maps grid cells to resolved place strings for the lifetime of
// one loaded dataset. It is never invalidated; a reload creates a new one.
type LocationCache struct {
	mu      sync.RWMutex
	entries map[Key]string
}

func NewLocationCache() *LocationCache {
	return &LocationCache{
		entries: make(map[Key]string),
	}
}

func (c *LocationCache) Get(key Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	place, ok := c.entries[key]
	return place, ok
}

func (c *LocationCache) Set(key Key, place string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = place
}

func (c *LocationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of all entries.
func (c *LocationCache) Snapshot() map[Key]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Key]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
