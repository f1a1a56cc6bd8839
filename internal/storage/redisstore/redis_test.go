package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/trailpass/internal/storage"
	"github.com/redmonkez12/trailpass/internal/storage/storagetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(client, "test:")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStore_UsesPrefix(t *testing.T) {
	s, mr := newTestStore(t)

	require.NoError(t, s.Put(context.Background(), "users:email:a@b.com", []byte("rec")))

	got, err := mr.Get("test:users:email:a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "rec", got)
}

func TestStore_BackendDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)

	_, err = s.PutIfAbsent(context.Background(), "k", []byte("v"))
	assert.Error(t, err)
}
