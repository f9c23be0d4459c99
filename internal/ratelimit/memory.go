package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

const shardCount = 32

// MemoryStore is a process-local Store. Keys are spread over shards by
// xxh3 hash; each shard has its own mutex, so a key is always guarded by
// the same lock.
type MemoryStore struct {
	shards [shardCount]shard
}

type shard struct {
	mu      sync.Mutex
	entries map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]Entry)
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	return &s.shards[xxh3.HashString(key)%shardCount]
}

func (s *MemoryStore) Update(_ context.Context, key string, fn func(cur Entry, found bool) Entry) (Entry, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	cur, found := sh.entries[key]
	next := fn(cur, found)
	sh.entries[key] = next
	return next, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	var removed int
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, e := range sh.entries {
			if !now.Before(e.ResetAt) {
				delete(sh.entries, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	var n int
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}
