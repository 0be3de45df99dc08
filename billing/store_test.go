package billing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/billing"
	"github.com/goliatone/go-auth-starter/database"
)

var now = time.Date(2026, 5, 15, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*billing.Store, *auth.User) {
	t.Helper()

	db, err := database.Open(database.Options{
		Driver: database.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.Migrate(context.Background(), db)
	require.NoError(t, err)

	user, err := auth.NewUsersRepository(db).Register(context.Background(), &auth.User{
		Email:        "payer@example.com",
		PasswordHash: "hash",
		Active:       true,
	})
	require.NoError(t, err)

	return billing.NewStore(db, billing.WithClock(func() time.Time { return now })), user
}

func TestSubscription(t *testing.T) {
	ctx := context.Background()
	store, user := newStore(t)

	_, err := store.SubscriptionFor(ctx, user.ID)
	assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)

	created, err := store.Subscribe(ctx, user.ID, "gold")
	require.NoError(t, err)
	assert.Equal(t, "gold", created.Plan)

	found, err := store.SubscriptionFor(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestBillingHistory(t *testing.T) {
	ctx := context.Background()
	store, user := newStore(t)

	for i := 0; i < billing.BillingHistoryLimit+2; i++ {
		createdAt := now.Add(time.Duration(i) * time.Hour)
		_, err := store.RecordPayment(ctx, &billing.Payment{
			UserID:        user.ID,
			Plan:          "gold",
			ReceiptNumber: fmt.Sprintf("R-%02d", i),
			Currency:      "usd",
			Total:         1000,
			CreatedAt:     &createdAt,
		})
		require.NoError(t, err)
	}

	history, err := store.BillingHistory(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, billing.BillingHistoryLimit)
	assert.Equal(t, "R-11", history[0].ReceiptNumber)

	empty, err := store.BillingHistory(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = store.RecordPayment(ctx, &billing.Payment{})
	assert.Error(t, err)
}

func TestCardsExpiring(t *testing.T) {
	ctx := context.Background()
	store, user := newStore(t)

	soon, err := store.SaveCard(ctx, &billing.CreditCard{
		UserID:         user.ID,
		Brand:          "Visa",
		Last4:          4242,
		ExpirationDate: now.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.True(t, soon.IsExpiring)

	later, err := store.SaveCard(ctx, &billing.CreditCard{
		UserID:         user.ID,
		Brand:          "Visa",
		Last4:          1881,
		ExpirationDate: now.AddDate(0, 6, 0),
	})
	require.NoError(t, err)
	assert.False(t, later.IsExpiring)

	n, err := store.MarkExpiringCards(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.MarkExpiringCards(ctx, now.AddDate(0, 5, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIsExpiringSoon(t *testing.T) {
	assert.True(t, billing.IsExpiringSoon(now, now.AddDate(0, billing.IsExpiringDeltaMonths, 0)))
	assert.True(t, billing.IsExpiringSoon(now, now.AddDate(0, -1, 0)))
	assert.False(t, billing.IsExpiringSoon(now, now.AddDate(0, billing.IsExpiringDeltaMonths, 1)))
}
