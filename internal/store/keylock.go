package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// KeyLock is a registry of advisory, named, non-reentrant locks used to
// serialize mutations on the same transaction id. Locks are plain boolean
// flags: not fair, not owner-checked — any caller may release any key.
// Entries expire after a fixed idle TTL to bound memory; expiry of a held
// lock is tolerated and simply makes the key acquirable again.
type KeyLock struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, *atomic.Bool]
}

// NewKeyLock builds a lock registry holding at most capacity entries, each
// expiring ttl after creation.
func NewKeyLock(capacity int, ttl time.Duration) *KeyLock {
	return &KeyLock{
		entries: expirable.NewLRU[string, *atomic.Bool](capacity, nil, ttl),
	}
}

// TryAcquire attempts to take the lock for key without blocking. It returns
// true when the caller now holds the lock, false when another caller does.
func (l *KeyLock) TryAcquire(key string) bool {
	l.mu.Lock()
	flag, ok := l.entries.Get(key)
	if !ok {
		flag = &atomic.Bool{}
		l.entries.Add(key, flag)
	}
	l.mu.Unlock()

	return flag.CompareAndSwap(false, true)
}

// Release frees the lock for key. Releasing a key that is not held, or whose
// entry already expired, is a no-op.
func (l *KeyLock) Release(key string) {
	l.mu.Lock()
	flag, ok := l.entries.Get(key)
	l.mu.Unlock()
	if ok {
		flag.Store(false)
	}
}
