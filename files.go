package auth

import (
	"embed"
)

// MigrationsDir is the root of the embedded SQL migrations
const MigrationsDir = "data/sql/migrations"

// FixturesDir holds the demo data loaded by the fixtures command
const FixturesDir = "data/fixtures"

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// GetFixturesFS returns the demo fixture files for this package
func GetFixturesFS() embed.FS {
	return fixturesFS
}
