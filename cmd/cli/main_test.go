package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	s := miniredis.RunT(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
log_level: error
secret_key: cli-secret
jwt_secret_key: cli-jwt
redis_url: redis://%s/0
database:
  driver: sqlite
  dsn: "file:%s"
seed:
  admin_email: admin@example.com
  admin_password: admin-password
  member_email: member@example.com
  member_password: member-password
`, s.Addr(), filepath.Join(dir, "auth.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunRequiresCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), nil, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "usage:")
}

func TestRunCommands(t *testing.T) {
	ctx := context.Background()
	path := writeConfig(t)

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"-config", path, "migrate"}, &out))
	assert.Contains(t, out.String(), "applied 3 migration(s)")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-config", path, "seed"}, &out))
	assert.Contains(t, out.String(), "seeded 2 account(s)")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-config", path, "seed"}, &out))
	assert.Contains(t, out.String(), "seeded 0 account(s)")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-config", path, "create-user", "-role", "admin", "-name", "Ops", "ops@example.com", "correct-horse"}, &out))
	assert.Contains(t, out.String(), "ops@example.com")
	assert.NotContains(t, out.String(), "correct-horse")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-config", path, "mark-expiring-cards"}, &out))
	assert.Contains(t, out.String(), "flagged 0 card(s)")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-config", path, "fixtures"}, &out))
	assert.Contains(t, out.String(), "loaded demo fixtures")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-config", path, "migrate", "-down"}, &out))
	assert.Contains(t, out.String(), "rolled back 3 migration(s)")
}

func TestRunRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	path := writeConfig(t)

	var out bytes.Buffer
	assert.Error(t, run(ctx, []string{"-config", path, "unknown"}, &out))
	assert.Error(t, run(ctx, []string{"-config", path, "create-user", "only-email@example.com"}, &out))
	assert.Error(t, run(ctx, []string{"-config", path, "create-user", "-role", "owner", "x@example.com", "correct-horse"}, &out))
}
