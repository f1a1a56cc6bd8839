package user

import (
	"time"
)

type User struct {
	ID           string         `json:"id" msgpack:"id"`
	Email        string         `json:"email" msgpack:"email"`
	PasswordHash string         `json:"-" msgpack:"password_hash"` // Never expose password hash in JSON
	Name         string         `json:"name" msgpack:"name"`
	DateCreated  time.Time      `json:"dateCreated" msgpack:"date_created"`
	LicenseIDs   []string       `json:"licenseIds" msgpack:"license_ids"`
	Preferences  map[string]any `json:"preferences,omitempty" msgpack:"preferences"`
}

// PublicView is the representation returned to callers.
type PublicView struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	LicenseIDs  []string       `json:"licenseIds"`
	DateCreated time.Time      `json:"dateCreated"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

func (u *User) Public() PublicView {
	ids := make([]string, len(u.LicenseIDs))
	copy(ids, u.LicenseIDs)

	return PublicView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		LicenseIDs:  ids,
		DateCreated: u.DateCreated,
		Preferences: u.Preferences,
	}
}
