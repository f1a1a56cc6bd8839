package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/redmonkez12/trailpass/internal/apperr"
	"github.com/redmonkez12/trailpass/internal/storage"
)

var (
	ErrNotFound       = apperr.ErrUserNotFound
	ErrDuplicateEmail = apperr.ErrDuplicateEmail
)

// Repository is the identity registry. The full record lives under the
// email key, which makes the email the uniqueness key; the id key only
// points back to the email.
type Repository struct {
	store storage.Store
	now   func() time.Time
}

func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

func emailKey(email string) string {
	return "users:email:" + email
}

func idKey(id string) string {
	return "users:id:" + id
}

// Create inserts a new user. If a user with the same email exists, nothing is
// written and ErrDuplicateEmail is returned.
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	rec := *u
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.DateCreated.IsZero() {
		rec.DateCreated = r.now().UTC()
	}
	if rec.LicenseIDs == nil {
		rec.LicenseIDs = []string{}
	}

	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	stored, err := r.store.PutIfAbsent(ctx, emailKey(rec.Email), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if !stored {
		return nil, ErrDuplicateEmail
	}

	if err := r.store.Put(ctx, idKey(rec.ID), []byte(rec.Email)); err != nil {
		return nil, fmt.Errorf("failed to index user id: %w", err)
	}

	return &rec, nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	data, err := r.store.Get(ctx, emailKey(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return decode(data)
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	email, err := r.emailForID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.GetByEmail(ctx, email)
}

// AppendLicense appends licenseID to the user's license list in a single
// atomic read-modify-write.
func (r *Repository) AppendLicense(ctx context.Context, userID, licenseID string) error {
	email, err := r.emailForID(ctx, userID)
	if err != nil {
		return err
	}

	err = r.store.Update(ctx, emailKey(email), func(current []byte) ([]byte, error) {
		u, err := decode(current)
		if err != nil {
			return nil, err
		}
		u.LicenseIDs = append(u.LicenseIDs, licenseID)
		return msgpack.Marshal(u)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to append license: %w", err)
	}

	return nil
}

func (r *Repository) emailForID(ctx context.Context, id string) (string, error) {
	data, err := r.store.Get(ctx, idKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get user by id: %w", err)
	}
	return string(data), nil
}

func decode(data []byte) (*User, error) {
	u := new(User)
	if err := msgpack.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if u.LicenseIDs == nil {
		u.LicenseIDs = []string{}
	}
	return u, nil
}
