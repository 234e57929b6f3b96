package store

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/richardliu001/transaction-service/internal/model"
)

// RecordStore is the bounded primary cache mapping transaction id to record.
// When full, the least-recently-touched entry is silently dropped; eviction
// carries no business meaning. The store does not enforce id uniqueness
// beyond overwrite-by-key — fresh-id uniqueness is the engine's concern.
type RecordStore struct {
	cache *lru.Cache[string, model.Transaction]
}

// NewRecordStore builds a record store bounded at capacity entries.
func NewRecordStore(capacity int) (*RecordStore, error) {
	c, err := lru.New[string, model.Transaction](capacity)
	if err != nil {
		return nil, err
	}
	return &RecordStore{cache: c}, nil
}

// Get returns the record for id, if present.
func (s *RecordStore) Get(id string) (model.Transaction, bool) {
	return s.cache.Get(id)
}

// Put inserts or overwrites the record for id.
func (s *RecordStore) Put(id string, t model.Transaction) {
	s.cache.Add(id, t)
}

// Remove drops the record for id, if present.
func (s *RecordStore) Remove(id string) {
	s.cache.Remove(id)
}

// Keys returns a snapshot of all ids currently in the store.
func (s *RecordStore) Keys() []string {
	return s.cache.Keys()
}

// Len returns the number of records currently held.
func (s *RecordStore) Len() int {
	return s.cache.Len()
}
