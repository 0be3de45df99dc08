package auth

import (
	"context"

	"github.com/google/uuid"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// WithClaimsContext sets verified access claims in the given context.
// Its signature matches the jwtware ContextEnricher hook.
func WithClaimsContext(r context.Context, claims *JWTClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the claims stored by WithClaimsContext
func ClaimsFromContext(ctx context.Context) (*JWTClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*JWTClaims)
	return raw, ok && raw != nil
}

// actorFromContext names the caller for activity events: the user id
// when a user is attached, otherwise the email claim.
func actorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if user, ok := FromContext(ctx); ok && user.ID != uuid.Nil {
		return user.ID.String()
	}
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Email
	}
	return ""
}
