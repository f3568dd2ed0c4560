package report

import (
	"github.com/hashicorp/golang-lru/v2"
)

// LRUStore keeps recently used records in a bounded in-memory cache and
// delegates to a backing Store on miss.
type LRUStore struct {
	cache *lru.Cache[string, *BuildRecord]
	back  Store
}

// NewLRUStore creates an LRU cache with the given capacity in front of
// back. Capacities below one are clamped to one.
func NewLRUStore(capacity int, back Store) (*LRUStore, error) {
	if capacity < 1 {
		capacity = 1
	}
	cache, err := lru.New[string, *BuildRecord](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: cache, back: back}, nil
}

// Save writes the record through to the backing store and caches it.
func (s *LRUStore) Save(rec *BuildRecord) error {
	s.cache.Add(rec.ID, rec)
	return s.back.Save(rec)
}

// Load checks the cache first. On miss, the record is loaded from the
// backing store and promoted into the cache.
func (s *LRUStore) Load(id string) (*BuildRecord, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}
	rec, err := s.back.Load(id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, rec)
	return rec, nil
}
