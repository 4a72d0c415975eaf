package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	hits, misses int32
}

func (o *countingObserver) ObserveCacheHit()  { atomic.AddInt32(&o.hits, 1) }
func (o *countingObserver) ObserveCacheMiss() { atomic.AddInt32(&o.misses, 1) }

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	badgerStore, err := NewBadgerStore(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerStore.Close() })

	diskStore, err := NewBadgerStore(BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = diskStore.Close() })

	return map[string]Store{
		"memory":        NewMemoryStore(),
		"badger-memory": badgerStore,
		"badger-disk":   diskStore,
	}
}

func TestResponseCache_ResolveHitAndMiss(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			obs := &countingObserver{}
			c := New(store, WithObserver(obs))
			ctx := context.Background()

			calls := 0
			fill := func(context.Context) ([]byte, error) {
				calls++
				return []byte(`{"n":1}`), nil
			}

			entry, hit, err := c.Resolve(ctx, "a.txt", false, fill)
			require.NoError(t, err)
			assert.False(t, hit)
			assert.Equal(t, []byte(`{"n":1}`), entry.RawResponse)

			entry, hit, err = c.Resolve(ctx, "a.txt", false, fill)
			require.NoError(t, err)
			assert.True(t, hit)
			assert.Equal(t, "a.txt", entry.FileName)
			assert.Equal(t, []byte(`{"n":1}`), entry.RawResponse)

			assert.Equal(t, 1, calls, "a hit must not call the provider")
			assert.Equal(t, int32(1), obs.hits)
			assert.Equal(t, int32(1), obs.misses)
		})
	}
}

func TestResponseCache_ForceBypassesAndOverwrites(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a.txt", []byte("old")))

	entry, hit, err := c.Resolve(ctx, "a.txt", true, func(context.Context) ([]byte, error) {
		return []byte("new"), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("new"), entry.RawResponse)

	stored, ok, err := c.Get(ctx, "a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), stored.RawResponse)
}

func TestResponseCache_FailedFillKeepsEntry(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "a.txt", []byte("old")))

	boom := errors.New("boom")
	_, _, err := c.Resolve(ctx, "a.txt", true, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	stored, ok, err := c.Get(ctx, "a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("old"), stored.RawResponse)
}

func TestResponseCache_FailedFillOnMissWritesNothing(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	_, _, err := c.Resolve(ctx, "a.txt", false, func(context.Context) ([]byte, error) {
		return nil, errors.New("down")
	})
	require.Error(t, err)

	_, ok, err := c.Get(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResponseCache_KeyIsFileNameOnly(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	first := func(context.Context) ([]byte, error) { return []byte("first prompt"), nil }
	second := func(context.Context) ([]byte, error) { return []byte("second prompt"), nil }

	_, _, err := c.Resolve(ctx, "a.txt", false, first)
	require.NoError(t, err)

	entry, hit, err := c.Resolve(ctx, "a.txt", false, second)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("first prompt"), entry.RawResponse)
}

func TestResponseCache_InvalidateAndList(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			c := New(store)
			ctx := context.Background()

			require.NoError(t, c.Put(ctx, "b.txt", []byte("b")))
			require.NoError(t, c.Put(ctx, "a.txt", []byte("a")))

			names, err := c.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a.txt", "b.txt"}, names)

			require.NoError(t, c.Invalidate(ctx, "a.txt"))
			require.NoError(t, c.Invalidate(ctx, "missing.txt"))

			names, err = c.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"b.txt"}, names)
		})
	}
}

func TestResponseCache_AtMostOneWriterPerKey(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	var calls int32
	fill := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return []byte("x"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.Resolve(ctx, "same.txt", false, fill)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, c.locks, "locks are released after use")
}

func TestResponseCache_CachedAtUsesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	c := New(NewMemoryStore(), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a.txt", []byte("x")))
	entry, ok, err := c.Get(ctx, "a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entry.CachedAt.Equal(fixed))
}

func TestResponseCache_ShouldBypass(t *testing.T) {
	c := New(NewMemoryStore())
	assert.True(t, c.ShouldBypass(true))
	assert.False(t, c.ShouldBypass(false))
}

func TestStores_ClosedReturnsErrClosed(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Close())
			_, _, err := store.Get(context.Background(), "k")
			assert.ErrorIs(t, err, ErrClosed)
			assert.ErrorIs(t, store.Put(context.Background(), "k", nil), ErrClosed)
		})
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerStore(BadgerConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, New(store).Put(ctx, "a.txt", []byte(`{"ok":true}`)))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	entry, ok, err := New(reopened).Get(ctx, "a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"ok":true}`), entry.RawResponse)
}
