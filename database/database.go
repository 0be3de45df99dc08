package database

import (
	"context"
	"database/sql"
	"io/fs"
	"strings"
	"text/template"
	"time"

	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/billing"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultPingTimeout bounds the connection check done by Open
const DefaultPingTimeout = 5 * time.Second

// Options selects the driver and DSN of the connection
type Options struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (o Options) GetDebug() bool {
	return o.Debug
}

func (o Options) GetDriver() string {
	return o.Driver
}

func (o Options) GetServer() string {
	return o.DSN
}

func (o Options) GetPingTimeout() time.Duration {
	if o.PingTimeout <= 0 {
		return DefaultPingTimeout
	}
	return o.PingTimeout
}

func (o Options) GetOtelIdentifier() string {
	return ""
}

// Models lists the tables fixtures can reference by type name
func Models() []any {
	return []any{
		(*auth.User)(nil),
		(*auth.RefreshToken)(nil),
		(*billing.Subscription)(nil),
		(*billing.Payment)(nil),
		(*billing.CreditCard)(nil),
	}
}

// Open connects bun to postgres or sqlite through the persistence
// client and pings the server. Failed queries are always logged,
// Debug logs every query.
func Open(opts Options) (*bun.DB, error) {
	var (
		sqldb   *sql.DB
		dialect schema.Dialect
	)

	switch strings.ToLower(opts.Driver) {
	case DriverPostgres, "pg", "postgresql":
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(opts.DSN)))
		dialect = pgdialect.New()
	case DriverSQLite, "sqlite3":
		db, err := sql.Open(sqliteshim.ShimName, opts.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
		}
		db.SetMaxOpenConns(1)
		sqldb = db
		dialect = sqlitedialect.New()
	default:
		return nil, goerrors.New("unsupported database driver", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"driver": opts.Driver})
	}

	persistence.RegisterModel(Models()...)

	client, err := persistence.New(opts, sqldb, dialect)
	if err != nil {
		_ = sqldb.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to connect to database").
			WithMetadata(map[string]any{"driver": opts.Driver})
	}

	return client.DB(), nil
}

// Migrate applies the embedded migrations as one group and returns how
// many ran
func Migrate(ctx context.Context, db *bun.DB) (int, error) {
	migrations, err := newMigrations()
	if err != nil {
		return 0, err
	}

	if err := migrations.Migrate(ctx, db); err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply migrations")
	}

	group := migrations.Report()
	if group == nil {
		return 0, nil
	}
	return len(group.Migrations), nil
}

// Rollback reverts the most recent migration group and returns how many
// migrations it undid
func Rollback(ctx context.Context, db *bun.DB) (int, error) {
	migrations, err := newMigrations()
	if err != nil {
		return 0, err
	}

	if err := migrations.Rollback(ctx, db); err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to roll back migrations")
	}

	group := migrations.Report()
	if group == nil {
		return 0, nil
	}
	return len(group.Migrations), nil
}

func newMigrations() (*persistence.Migrations, error) {
	sub, err := fs.Sub(auth.GetMigrationsFS(), auth.MigrationsDir)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load migrations")
	}
	return persistence.NewMigrations().RegisterSQLMigrations(sub), nil
}

// FixtureOptions controls LoadFixtures
type FixtureOptions struct {
	// Truncate empties every table a fixture file names before loading it
	Truncate bool
}

// LoadFixtures inserts the yaml fixtures found in fsys. Rows can hash a
// plain password with {{ password "secret" }}.
func LoadFixtures(ctx context.Context, db *bun.DB, fsys fs.FS, opts FixtureOptions) error {
	seeds := persistence.NewSeedManager(db,
		persistence.WithFS(fsys),
		persistence.WithTemplateFuncs(template.FuncMap{
			"password": fixturePassword,
		}),
	)

	if opts.Truncate {
		seeds.AddOptions(persistence.WithTrucateTables())
	}

	return seeds.Load(ctx)
}

// LoadDemoFixtures loads the embedded demo accounts
func LoadDemoFixtures(ctx context.Context, db *bun.DB, opts FixtureOptions) error {
	sub, err := fs.Sub(auth.GetFixturesFS(), auth.FixturesDir)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load fixtures")
	}
	return LoadFixtures(ctx, db, sub, opts)
}

func fixturePassword(plain string) string {
	hash, err := auth.HashPassword(plain)
	if err != nil {
		return auth.UnusablePasswordHash("")
	}
	return hash
}
