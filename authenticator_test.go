package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-starter"
)

func newAuthenticator(t *testing.T) (*auth.Authenticator, auth.RepositoryManager, *recordingSink) {
	t.Helper()

	repo := newTestRepo(t, nil)
	sink := &recordingSink{}
	tokens := auth.NewTokenService(testSigningKey, 0, 0, auth.WithTokenLogger(testLogger{}))

	a := auth.NewAuthenticator(repo, tokens).
		WithLogger(testLogger{}).
		WithActivitySink(sink)
	return a, repo, sink
}

func TestExchangeIssuesTokens(t *testing.T) {
	ctx := context.Background()
	a, repo, sink := newAuthenticator(t)
	user := createUser(t, repo, "member@example.com", "correct-horse", auth.RoleMember)

	pair, err := a.Exchange(ctx, auth.ExchangeRequest{
		Email:      "Member@Example.com",
		Password:   "correct-horse",
		Host:       "api.example.com",
		RemoteAddr: "192.0.2.10",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := a.TokenService().Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "member@example.com", claims.Email)
	assert.Equal(t, "api.example.com", claims.Issuer)

	current, err := a.CurrentUser(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)
	assert.Equal(t, 1, current.SignInCount)
	assert.Equal(t, "192.0.2.10", current.CurrentSignInIP)

	ledger, err := repo.RefreshTokens().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, pair.RefreshToken, ledger[0].Token)

	event := sink.last(t)
	assert.Equal(t, auth.ActivityEventLoginSuccess, event.EventType)
	assert.Equal(t, user.ID.String(), event.UserID)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestExchangeWrongCredentials(t *testing.T) {
	ctx := context.Background()
	a, repo, sink := newAuthenticator(t)
	user := createUser(t, repo, "member@example.com", "correct-horse", auth.RoleMember)

	_, err := a.Exchange(ctx, auth.ExchangeRequest{Email: "member@example.com", Password: "wrong-horse"})
	assert.ErrorIs(t, err, auth.ErrWrongCredentials)
	assert.Equal(t, auth.ActivityEventLoginFailure, sink.last(t).EventType)

	_, err = a.Exchange(ctx, auth.ExchangeRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, auth.ErrWrongCredentials)

	stored, err := repo.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.SignInCount)
}

func TestExchangeDisabledAccount(t *testing.T) {
	ctx := context.Background()
	a, repo, _ := newAuthenticator(t)
	user := createUser(t, repo, "member@example.com", "correct-horse", auth.RoleMember)

	user.Active = false
	_, err := repo.Users().Save(ctx, user)
	require.NoError(t, err)

	_, err = a.Exchange(ctx, auth.ExchangeRequest{Email: user.Email, Password: "correct-horse"})
	assert.ErrorIs(t, err, auth.ErrAccountDisabled)

	// the disabled message is only revealed with the right password
	_, err = a.Exchange(ctx, auth.ExchangeRequest{Email: user.Email, Password: "wrong-horse"})
	assert.ErrorIs(t, err, auth.ErrWrongCredentials)
}

func TestExchangeRemovedAndPendingAccounts(t *testing.T) {
	ctx := context.Background()
	a, repo, _ := newAuthenticator(t)
	user := createUser(t, repo, "member@example.com", "correct-horse", auth.RoleMember)
	require.NoError(t, repo.Users().SoftDelete(ctx, user))

	_, err := a.Exchange(ctx, auth.ExchangeRequest{Email: user.Email, Password: "correct-horse"})
	assert.ErrorIs(t, err, auth.ErrWrongCredentials)

	pending, err := repo.Users().Register(ctx, &auth.User{
		Email:        "invited@example.com",
		PasswordHash: auth.UnusablePasswordHash("placeholder"),
	})
	require.NoError(t, err)

	_, err = a.Exchange(ctx, auth.ExchangeRequest{Email: pending.Email, Password: "placeholder"})
	assert.ErrorIs(t, err, auth.ErrWrongCredentials)
}

func TestExchangeCancelledContext(t *testing.T) {
	a, _, _ := newAuthenticator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Exchange(ctx, auth.ExchangeRequest{Email: "member@example.com", Password: "correct-horse"})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryOperation, richErr.Category)
}

func TestCurrentUserRejectsStaleClaims(t *testing.T) {
	ctx := context.Background()
	a, repo, _ := newAuthenticator(t)
	user := createUser(t, repo, "member@example.com", "correct-horse", auth.RoleMember)

	claims := &auth.JWTClaims{Email: user.Email, UserRole: string(user.Role)}
	_, err := a.CurrentUser(ctx, claims)
	require.NoError(t, err)

	require.NoError(t, repo.Users().SoftDelete(ctx, user))
	_, err = a.CurrentUser(ctx, claims)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = a.CurrentUser(ctx, &auth.JWTClaims{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
