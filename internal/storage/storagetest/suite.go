// Package storagetest holds the behavioural test suite every storage.Store
// backend must pass.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/trailpass/internal/storage"
)

// Run exercises store against the storage.Store contract. newStore must
// return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("get missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, "k", []byte("v1")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, s.Put(ctx, "k", []byte("v2")))
		got, err = s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("put if absent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ok, err := s.PutIfAbsent(ctx, "k", []byte("first"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.PutIfAbsent(ctx, "k", []byte("second"))
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), got)
	})

	t.Run("concurrent put if absent has one winner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const workers = 16
		var wins atomic.Int32
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok, err := s.PutIfAbsent(ctx, "race", []byte(fmt.Sprintf("w%d", i)))
				if err != nil {
					errs <- err
					return
				}
				if ok {
					wins.Add(1)
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("update missing key", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), "missing", func(b []byte) ([]byte, error) {
			return b, nil
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update applies function", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k", []byte("a")))

		err := s.Update(ctx, "k", func(b []byte) ([]byte, error) {
			return append(b, 'b'), nil
		})
		require.NoError(t, err)

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("ab"), got)
	})

	t.Run("update error leaves record", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k", []byte("a")))

		boom := errors.New("boom")
		err := s.Update(ctx, "k", func([]byte) ([]byte, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("a"), got)
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "counter", []byte{}))

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.Update(ctx, "counter", func(b []byte) ([]byte, error) {
					return append(b, 'x'), nil
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.Get(ctx, "counter")
		require.NoError(t, err)
		assert.Len(t, got, workers)
	})
}
