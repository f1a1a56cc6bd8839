// Package redisstore implements storage.Store on Redis. PutIfAbsent maps to
// SETNX and Update to an optimistic WATCH/MULTI transaction.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/trailpass/internal/storage"
)

// maxUpdateAttempts bounds optimistic retries when a watched key changes
// between read and write.
const maxUpdateAttempts = 32

// Store persists records as plain Redis strings under a common key prefix.
type Store struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// recordKey generates the Redis key for a store key
func (s *Store) recordKey(key string) string {
	return s.prefix + key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.recordKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	return nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	stored, err := s.client.SetNX(ctx, s.recordKey(key), value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to put record: %w", err)
	}
	return stored, nil
}

func (s *Store) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	rk := s.recordKey(key)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		// Only runs if the watched key is unchanged
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return storage.ErrConflict
}

func (s *Store) Close() error {
	return s.client.Close()
}
