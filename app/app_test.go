package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-auth-starter/app"
	"github.com/goliatone/go-auth-starter/config"
	"github.com/goliatone/go-auth-starter/database"
	"github.com/goliatone/go-auth-starter/logging"
	"github.com/goliatone/go-auth-starter/mailer"
)

type captureSender struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (s *captureSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:          "auth-test",
		Env:                  "test",
		LogLevel:             "error",
		SecretKey:            "app-secret",
		JWTSecretKey:         "jwt-secret",
		AccessTokenExp:       15,
		RefreshTokenExp:      7,
		UserUnusablePassword: "unusable",
		Database: config.DatabaseConfig{
			Driver: database.DriverSQLite,
			DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
		HTTP: config.HTTPConfig{
			PublicBaseURL: "https://app.example.com",
		},
		Mail: config.MailConfig{
			DefaultSender: "noreply@example.com",
		},
		Queue: config.QueueConfig{
			Name:        "test:deliveries",
			MaxAttempts: 3,
		},
		RateLimit: config.RateLimitConfig{
			LoginLimit: 3,
			Window:     time.Minute,
		},
		Seed: config.SeedConfig{
			AdminEmail:     "admin@example.com",
			AdminPassword:  "admin-password",
			MemberEmail:    "member@example.com",
			MemberPassword: "member-password",
		},
	}
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})

	logger := logging.NewAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	a, err := app.New(testConfig(), app.WithRedis(client), app.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	n, err := a.Migrate(context.Background())
	require.NoError(t, err)
	require.Greater(t, n, 0)

	return a
}

func post(t *testing.T, server *fiber.App, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestNewRequiresSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecretKey = ""

	_, err := app.New(cfg)
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	n, err := a.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = a.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	admin, err := a.Repo.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin", string(admin.Role))
	assert.True(t, admin.IsActive())
}

func TestInviteIsDeliveredByWorker(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.Seed(ctx)
	require.NoError(t, err)

	server := a.HTTP().WrappedRouter()

	status, body := post(t, server, "/api/tokens", map[string]string{
		"email":    "admin@example.com",
		"password": "admin-password",
	}, "")
	require.Equal(t, http.StatusOK, status)
	token := body["access_token"].(string)

	status, body = post(t, server, "/api/invites", map[string]string{
		"email": "invitee@example.com",
	}, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Invite sent", body["message"])

	pending, err := a.Queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	sender := &captureSender{}
	processed, err := a.Worker(sender).ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, "invitee@example.com", msg.To)
	assert.Equal(t, "noreply@example.com", msg.From)

	invitee, err := a.Repo.Users().FindByEmail(ctx, "invitee@example.com")
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "https://app.example.com/register/"+invitee.ID.String()+"/")
}

func TestLoginIsRateLimited(t *testing.T) {
	a := newTestApp(t)
	server := a.HTTP().WrappedRouter()

	payload := map[string]string{"email": "nobody@example.com", "password": "whatever"}
	for i := 0; i < 3; i++ {
		status, _ := post(t, server, "/api/tokens", payload, "")
		require.Equal(t, http.StatusOK, status)
	}

	status, body := post(t, server, "/api/tokens", payload, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, false, body["success"])
}

func TestMetricsCountAccountEvents(t *testing.T) {
	a := newTestApp(t)
	server := a.HTTP().WrappedRouter()

	post(t, server, "/api/tokens", map[string]string{"email": "nobody@example.com", "password": "whatever"}, "")

	resp, err := server.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(raw), `account_events_total{event="auth.login.failure"} 1`))
}
