package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/billing"
	"github.com/goliatone/go-auth-starter/database"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(database.Options{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestMigrateAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(database.Options{
		Driver: database.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		Debug:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	n, err := database.Migrate(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = database.Migrate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)

	var tables []string
	err = db.NewSelect().
		Table("sqlite_master").
		Column("name").
		Where("type = 'table' AND name IN (?)", bun.In([]string{"users", "tokens", "cards"})).
		Scan(ctx, &tables)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users", "tokens", "cards"}, tables)

	n, err = database.Rollback(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = database.Rollback(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = database.Migrate(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOptionsDefaults(t *testing.T) {
	opts := database.Options{Driver: database.DriverSQLite, DSN: "file::memory:"}
	assert.Equal(t, database.DefaultPingTimeout, opts.GetPingTimeout())
	assert.Equal(t, "file::memory:", opts.GetServer())
	assert.Empty(t, opts.GetOtelIdentifier())

	opts.PingTimeout = time.Second
	assert.Equal(t, time.Second, opts.GetPingTimeout())
}

func TestLoadDemoFixtures(t *testing.T) {
	ctx := context.Background()
	db := openMigrated(t)

	require.NoError(t, database.LoadDemoFixtures(ctx, db, database.FixtureOptions{}))

	var admin auth.User
	err := db.NewSelect().Model(&admin).Where("email = ?", "demo-admin@example.com").Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.Role)
	assert.True(t, admin.Active)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "demo-admin-password"))

	var disabled auth.User
	err = db.NewSelect().Model(&disabled).Where("email = ?", "demo-disabled@example.com").Scan(ctx)
	require.NoError(t, err)
	assert.False(t, disabled.IsActive())

	cards, err := db.NewSelect().Model((*billing.CreditCard)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cards)

	// unique emails reject a second plain load, truncation makes it repeatable
	assert.Error(t, database.LoadDemoFixtures(ctx, db, database.FixtureOptions{}))
	require.NoError(t, database.LoadDemoFixtures(ctx, db, database.FixtureOptions{Truncate: true}))

	users, err := db.NewSelect().Model((*auth.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, users)
}

func openMigrated(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.Open(database.Options{
		Driver: database.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.Migrate(context.Background(), db)
	require.NoError(t, err)
	return db
}
