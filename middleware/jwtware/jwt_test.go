package jwtware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/middleware/jwtware"
)

var signingKey = []byte("test-secret")

func newServer() router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{DisableStartupMessage: true})
	})
}

func newApp(t *testing.T, cfg jwtware.Config) *fiber.App {
	t.Helper()

	srv := newServer()
	srv.Router().Get("/protected", func(ctx router.Context) error {
		claims, ok := jwtware.ClaimsFromContext(ctx)
		require.True(t, ok)
		return ctx.JSON(router.StatusOK, map[string]any{"email": claims.Email, "role": claims.UserRole})
	}, jwtware.New(cfg))
	return srv.WrappedRouter()
}

func issue(t *testing.T, ts *auth.TokenServiceImpl, role auth.UserRole) string {
	t.Helper()
	token, _, err := ts.IssueAccessToken(&auth.User{Email: "a@x.com", Role: role}, "example.com")
	require.NoError(t, err)
	return token
}

func do(t *testing.T, app *fiber.App, header string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	body := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestJWTWare_BearerHeader(t *testing.T) {
	ts := auth.NewTokenService(signingKey, 0, 0)
	app := newApp(t, jwtware.Config{TokenValidator: ts})

	resp, body := do(t, app, "Bearer "+issue(t, ts, auth.RoleMember))
	assert.Equal(t, router.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, "member", body["role"])
}

func TestJWTWare_MissingOrMalformed(t *testing.T) {
	ts := auth.NewTokenService(signingKey, 0, 0)
	app := newApp(t, jwtware.Config{TokenValidator: ts})

	resp, body := do(t, app, "")
	assert.Equal(t, router.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, jwtware.ErrJWTMissingOrMalformed.Error(), body["message"])

	resp, _ = do(t, app, "Token abc")
	assert.Equal(t, router.StatusUnauthorized, resp.StatusCode)

	resp, body = do(t, app, "Bearer malformed.token.structure")
	assert.Equal(t, router.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, auth.ErrInvalidToken.Error(), body["message"])
}

func TestJWTWare_ExpiredToken(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	old := auth.NewTokenService(signingKey, time.Minute, 0, auth.WithTokenClock(func() time.Time { return issuedAt }))
	ts := auth.NewTokenService(signingKey, 0, 0)
	app := newApp(t, jwtware.Config{TokenValidator: ts})

	resp, _ := do(t, app, "Bearer "+issue(t, old, auth.RoleMember))
	assert.Equal(t, router.StatusUnauthorized, resp.StatusCode)
}

func TestJWTWare_RefreshTokenRejected(t *testing.T) {
	ts := auth.NewTokenService(signingKey, 0, 0)
	app := newApp(t, jwtware.Config{TokenValidator: ts})

	refresh, _, err := ts.IssueRefreshToken("example.com")
	require.NoError(t, err)

	resp, _ := do(t, app, "Bearer "+refresh)
	assert.Equal(t, router.StatusUnauthorized, resp.StatusCode)
}

func TestJWTWare_RoleGate(t *testing.T) {
	ts := auth.NewTokenService(signingKey, 0, 0)
	app := newApp(t, jwtware.Config{
		TokenValidator: ts,
		Roles:          auth.NewRoleSet(auth.RoleAdmin),
	})

	resp, body := do(t, app, "Bearer "+issue(t, ts, auth.RoleMember))
	assert.Equal(t, router.StatusForbidden, resp.StatusCode)
	assert.Equal(t, auth.ErrForbidden.Error(), body["message"])

	resp, _ = do(t, app, "Bearer "+issue(t, ts, auth.RoleAdmin))
	assert.Equal(t, router.StatusOK, resp.StatusCode)
}

func TestJWTWare_QueryLookupAndFilter(t *testing.T) {
	ts := auth.NewTokenService(signingKey, 0, 0)
	srv := newServer()
	r := srv.Router()
	r.Use(jwtware.New(jwtware.Config{
		TokenValidator: ts,
		TokenLookup:    "header:Authorization,query:access_token",
		Filter: func(ctx router.Context) bool {
			return ctx.Path() == "/public"
		},
	}))
	ok := func(ctx router.Context) error { return ctx.SendString("ok") }
	r.Get("/public", ok)
	r.Get("/private", ok)
	app := srv.WrappedRouter()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/public", nil))
	require.NoError(t, err)
	assert.Equal(t, router.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/private?access_token="+issue(t, ts, auth.RoleMember), nil))
	require.NoError(t, err)
	assert.Equal(t, router.StatusOK, resp.StatusCode)
}

func TestJWTWare_ValidationListenerError(t *testing.T) {
	ts := auth.NewTokenService(signingKey, 0, 0)
	app := newApp(t, jwtware.Config{
		TokenValidator: ts,
		ValidationListeners: []jwtware.ValidationListener{
			func(ctx router.Context, claims *auth.JWTClaims) error { return auth.ErrForbidden },
		},
	})

	resp, _ := do(t, app, "Bearer "+issue(t, ts, auth.RoleAdmin))
	assert.Equal(t, router.StatusForbidden, resp.StatusCode)
}

func TestJWTWare_ContextEnricherAndSuccessHandler(t *testing.T) {
	ts := auth.NewTokenService(signingKey, 0, 0)

	srv := newServer()
	srv.Router().Get("/protected", func(ctx router.Context) error {
		return ctx.SendString("wrapped handler")
	}, jwtware.New(jwtware.Config{
		TokenValidator:  ts,
		ContextEnricher: auth.WithClaimsContext,
		SuccessHandler: func(ctx router.Context) error {
			claims, ok := auth.ClaimsFromContext(ctx.Context())
			require.True(t, ok)
			return ctx.JSON(router.StatusOK, map[string]any{"email": claims.Email})
		},
	}))

	resp, body := do(t, srv.WrappedRouter(), "Bearer "+issue(t, ts, auth.RoleMember))
	assert.Equal(t, router.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@x.com", body["email"])
}
