package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := New(KindUserNotFound, "no user with id 42")

	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.False(t, errors.Is(err, ErrResourceNotFound))
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("issue license: %w", ErrUserNotFound)

	assert.ErrorIs(t, err, ErrUserNotFound)
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindUserNotFound, kind)
}

func TestKindOf_InfrastructureError(t *testing.T) {
	_, ok := KindOf(errors.New("connection refused"))
	assert.False(t, ok)
	assert.False(t, IsDomain(errors.New("boom")))
	assert.True(t, IsDomain(ErrWeakPassword))
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindMissingFields, "MissingFields"},
		{KindInvalidEmailFormat, "InvalidEmailFormat"},
		{KindWeakPassword, "WeakPassword"},
		{KindDuplicateEmail, "DuplicateEmail"},
		{KindUserNotFound, "UserNotFound"},
		{KindAuthenticationError, "AuthenticationError"},
		{KindResourceNotFound, "ResourceNotFound"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}
