// Package sqlstore implements storage.Store on a single kv_records table
// through Bun. It works with both the postgres and sqlite dialects.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/redmonkez12/trailpass/internal/storage"
)

type record struct {
	bun.BaseModel `bun:"table:kv_records,alias:r"`

	Key       string `bun:"record_key,pk"`
	Value     []byte `bun:"record_value,notnull"`
	UpdatedAt int64  `bun:"updated_at,notnull"`
}

// Store persists records in kv_records. The table is created by
// database.Migrate.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func New(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	rec := new(record)
	err := s.db.NewSelect().
		Model(rec).
		Where("record_key = ?", key).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return rec.Value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	rec := &record{Key: key, Value: value, UpdatedAt: toMillis(s.now())}

	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (record_key) DO UPDATE").
		Set("record_value = EXCLUDED.record_value").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}

	return nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	rec := &record{Key: key, Value: value, UpdatedAt: toMillis(s.now())}

	// The primary key constraint is the atomicity primitive here
	result, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to put record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

func (s *Store) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		rec := new(record)
		q := tx.NewSelect().
			Model(rec).
			Where("record_key = ?", key)
		if s.db.Dialect().Name() == dialect.PG {
			q = q.For("UPDATE")
		}

		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("failed to read record: %w", err)
		}

		next, err := fn(rec.Value)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*record)(nil)).
			Set("record_value = ?", next).
			Set("updated_at = ?", toMillis(s.now())).
			Where("record_key = ?", key).
			Returning("NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}

		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
