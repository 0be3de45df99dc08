package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-starter"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, nil)

	accounts := []auth.SeedAccount{
		{Email: "admin@example.com", Password: "admin-password", Role: auth.RoleAdmin},
		{Email: "member@example.com", Password: "member-password", Role: auth.RoleMember},
		{Email: "nopass@example.com"},
	}

	n, err := auth.Seed(ctx, repo, testLogger{}, accounts...)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	member, err := repo.Users().FindByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Users().SoftDelete(ctx, member))

	// removed accounts are not recreated
	n, err = auth.Seed(ctx, repo, nil, accounts...)
	require.NoError(t, err)
	assert.Zero(t, n)

	admin, err := repo.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, auth.Authenticated(admin, "admin-password"))
}
