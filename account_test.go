package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-starter"
)

func TestAccountStateOf(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	now := time.Now()

	tests := []struct {
		name string
		user *auth.User
		want auth.AccountState
	}{
		{"nil", nil, ""},
		{"pending", &auth.User{PasswordHash: auth.UnusablePasswordHash("x")}, auth.AccountStatePending},
		{"active", &auth.User{PasswordHash: hash, Active: true}, auth.AccountStateActive},
		{"disabled", &auth.User{PasswordHash: hash}, auth.AccountStateDisabled},
		{"removed", &auth.User{PasswordHash: hash, Active: true, DeletedAt: &now}, auth.AccountStateRemoved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.AccountStateOf(tt.user))
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, auth.CanTransition(auth.AccountStatePending, auth.AccountStateActive))
	assert.True(t, auth.CanTransition(auth.AccountStateActive, auth.AccountStateRemoved))
	assert.True(t, auth.CanTransition(auth.AccountStateDisabled, auth.AccountStateActive))

	assert.False(t, auth.CanTransition(auth.AccountStatePending, auth.AccountStateDisabled))
	assert.False(t, auth.CanTransition(auth.AccountStateRemoved, auth.AccountStateActive))
	assert.False(t, auth.CanTransition(auth.AccountStateRemoved, auth.AccountStateRemoved))
}

func TestAuthenticated(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	user := &auth.User{PasswordHash: hash}
	assert.True(t, auth.Authenticated(user, "correct-horse"))
	assert.False(t, auth.Authenticated(user, "wrong-horse"))
	assert.False(t, auth.Authenticated(user, ""))
	assert.False(t, auth.Authenticated(nil, "correct-horse"))

	invited := &auth.User{PasswordHash: auth.UnusablePasswordHash("correct-horse")}
	assert.False(t, auth.Authenticated(invited, "correct-horse"))
}
