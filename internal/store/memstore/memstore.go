// Package memstore is an in-memory Store for tests and single-process
// development runs.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	items map[asset.Key]store.CachedPrice

	// Now is overridable in tests.
	Now func() time.Time
}

func New() *Store {
	return &Store{items: make(map[asset.Key]store.CachedPrice), Now: time.Now}
}

func (s *Store) Get(_ context.Context, key asset.Key) (store.CachedPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[key]
	if !ok {
		return store.CachedPrice{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) Put(_ context.Context, key asset.Key, price decimal.Decimal, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = store.CachedPrice{Key: key, Price: price, Source: source, CachedAt: s.Now().UTC()}
	return nil
}

func (s *Store) GetMany(_ context.Context, keys []asset.Key) (map[asset.Key]store.CachedPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[asset.Key]store.CachedPrice, len(keys))
	for _, k := range keys {
		if c, ok := s.items[k]; ok {
			out[k] = c
		}
	}
	return out, nil
}

// Seed inserts a record with an explicit timestamp. Test helper.
func (s *Store) Seed(key asset.Key, price decimal.Decimal, source string, cachedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = store.CachedPrice{Key: key, Price: price, Source: source, CachedAt: cachedAt}
}
