package store

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// IndexStore is a bounded secondary index mapping a key (user id or merchant
// id) to the set of transaction ids filed under it. It is a derived view of
// the record store: best-effort, maintained synchronously by the engine.
// Mutations against one key are internally consistent even when callers
// working on different transaction ids race on that key, which is why the
// store carries its own mutex instead of relying on the engine's per-id lock.
type IndexStore struct {
	mu    sync.Mutex
	index *simplelru.LRU[string, map[string]struct{}]
}

// NewIndexStore builds an index bounded at capacity keys.
func NewIndexStore(capacity int) (*IndexStore, error) {
	idx, err := simplelru.NewLRU[string, map[string]struct{}](capacity, nil)
	if err != nil {
		return nil, err
	}
	return &IndexStore{index: idx}, nil
}

// Add files id under key, creating the set if the key is new.
func (s *IndexStore) Add(key, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.index.Get(key)
	if !ok {
		ids = make(map[string]struct{})
		s.index.Add(key, ids)
	}
	ids[id] = struct{}{}
}

// Remove unfiles id from key. The key itself is dropped once its set is
// empty, so no empty-value entries persist.
func (s *IndexStore) Remove(key, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.index.Get(key)
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		s.index.Remove(key)
	}
}

// Get returns a copied snapshot of the ids filed under key, if any. The copy
// keeps readers isolated from concurrent Add/Remove on the same key.
func (s *IndexStore) Get(key string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.index.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out, true
}

// Len returns the number of keys currently indexed.
func (s *IndexStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Len()
}
