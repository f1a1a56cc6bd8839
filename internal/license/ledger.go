package license

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/redmonkez12/trailpass/internal/apperr"
	"github.com/redmonkez12/trailpass/internal/storage"
)

var ErrNotFound = apperr.New(apperr.KindResourceNotFound, "license not found")

// Ledger stores licenses keyed by id. Licenses are never deleted.
type Ledger struct {
	store storage.Store
}

func NewLedger(store storage.Store) *Ledger {
	return &Ledger{store: store}
}

func key(id string) string {
	return "licenses:" + id
}

func (l *Ledger) Create(ctx context.Context, lic *License) (*License, error) {
	data, err := msgpack.Marshal(lic)
	if err != nil {
		return nil, fmt.Errorf("failed to encode license: %w", err)
	}

	stored, err := l.store.PutIfAbsent(ctx, key(lic.ID), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create license: %w", err)
	}
	if !stored {
		return nil, fmt.Errorf("license id %s already exists", lic.ID)
	}

	return lic, nil
}

func (l *Ledger) GetByID(ctx context.Context, id string) (*License, error) {
	data, err := l.store.Get(ctx, key(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	lic := new(License)
	if err := msgpack.Unmarshal(data, lic); err != nil {
		return nil, fmt.Errorf("failed to decode license: %w", err)
	}
	if lic.Restrictions == nil {
		lic.Restrictions = []string{}
	}
	return lic, nil
}

// ListByIDs resolves ids in order. An id with no record yields a nil entry.
func (l *Ledger) ListByIDs(ctx context.Context, ids []string) ([]*License, error) {
	out := make([]*License, len(ids))
	for i, id := range ids {
		lic, err := l.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out[i] = lic
	}
	return out, nil
}
