package dataset

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Store holds the currently served dataset. Reload builds a complete new
// dataset before swapping it in, so readers never see a partial load.
type Store struct {
	mu      sync.RWMutex
	current *Dataset

	reloadMu sync.Mutex
	loader   *Loader
	path     string
}

func NewStore(loader *Loader, path string) *Store {
	return &Store{
		loader: loader,
		path:   path,
	}
}

func (s *Store) Current() (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNotLoaded
	}
	return s.current, nil
}

// Reload reads the data file again. On failure the previous dataset stays served.
func (s *Store) Reload(ctx context.Context) (*Dataset, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ds, err := s.loader.LoadFile(ctx, s.path)
	if err != nil {
		log.Errorf("dataset reload from %s: %s", s.path, err)
		return nil, err
	}

	s.Set(ds)
	return ds, nil
}

func (s *Store) Set(ds *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		log.Debugf("replacing dataset [%s] with [%s]", s.current.ID, ds.ID)
	}
	s.current = ds
}
