package license

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive Status = "active"
	// StatusRevoked is reserved for administrative revocation. Nothing sets it yet.
	StatusRevoked Status = "revoked"
)

// Term is how long a license stays valid after issuance.
const Term = 365 * 24 * time.Hour

type License struct {
	ID             string    `json:"id" msgpack:"id"`
	UserID         string    `json:"userId" msgpack:"user_id"`
	Type           string    `json:"type" msgpack:"type"`
	IssueDate      time.Time `json:"issueDate" msgpack:"issue_date"`
	ExpirationDate time.Time `json:"expirationDate" msgpack:"expiration_date"`
	Status         Status    `json:"status" msgpack:"status"`
	Restrictions   []string  `json:"restrictions" msgpack:"restrictions"`
}

// New builds an active license issued at issuedAt with no restrictions.
func New(userID, licenseType string, issuedAt time.Time) *License {
	issuedAt = issuedAt.UTC()
	return &License{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           licenseType,
		IssueDate:      issuedAt,
		ExpirationDate: issuedAt.Add(Term),
		Status:         StatusActive,
		Restrictions:   []string{},
	}
}

// IsValidAt reports whether the license is active and unexpired at t.
func (l *License) IsValidAt(t time.Time) bool {
	return l.Status == StatusActive && t.Before(l.ExpirationDate)
}
