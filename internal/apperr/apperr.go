// Package apperr defines the closed set of domain failures returned by the
// credential and license core. Anything that is not an *Error is an
// infrastructure failure (store unavailable, hashing primitive error, ...).
package apperr

import "errors"

// Kind identifies a domain failure.
type Kind int

const (
	KindMissingFields Kind = iota + 1
	KindInvalidEmailFormat
	KindWeakPassword
	KindDuplicateEmail
	KindUserNotFound
	KindAuthenticationError
	KindResourceNotFound
)

var kindNames = map[Kind]string{
	KindMissingFields:       "MissingFields",
	KindInvalidEmailFormat:  "InvalidEmailFormat",
	KindWeakPassword:        "WeakPassword",
	KindDuplicateEmail:      "DuplicateEmail",
	KindUserNotFound:        "UserNotFound",
	KindAuthenticationError: "AuthenticationError",
	KindResourceNotFound:    "ResourceNotFound",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is a domain failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, apperr.ErrUserNotFound) matches any user-not-found failure
// regardless of its message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a domain failure of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrMissingFields      = New(KindMissingFields, "required fields are missing")
	ErrInvalidEmailFormat = New(KindInvalidEmailFormat, "invalid email format")
	ErrWeakPassword       = New(KindWeakPassword, "password must be at least 6 characters")
	ErrDuplicateEmail     = New(KindDuplicateEmail, "email already exists")
	ErrUserNotFound       = New(KindUserNotFound, "user not found")
	ErrAuthentication     = New(KindAuthenticationError, "invalid password")
	ErrResourceNotFound   = New(KindResourceNotFound, "resource not found")
)

// KindOf extracts the domain kind from err. ok is false for infrastructure
// failures.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsDomain reports whether err carries one of the domain kinds.
func IsDomain(err error) bool {
	_, ok := KindOf(err)
	return ok
}
