package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UpdateIsAtomicPerKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	incr := func(cur Entry, found bool) Entry {
		cur.Count++
		return cur
	}

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = s.Update(ctx, "key-"+strconv.Itoa(i%4), incr)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		e, err := s.Update(ctx, "key-"+strconv.Itoa(i), func(cur Entry, found bool) Entry {
			assert.True(t, found)
			return cur
		})
		require.NoError(t, err)
		assert.Equal(t, 1600, e.Count)
	}
	assert.Equal(t, 4, s.Len())
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	set := func(key string, resetAt time.Time) {
		_, err := s.Update(ctx, key, func(Entry, bool) Entry { return Entry{Count: 1, ResetAt: resetAt} })
		require.NoError(t, err)
	}
	set("past", now.Add(-time.Second))
	set("boundary", now)
	set("future", now.Add(time.Second))

	n, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, s.Len())
}
