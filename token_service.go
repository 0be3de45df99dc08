package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenService issues and validates JWTs
type TokenService interface {
	IssueAccessToken(user *User, issuer string) (string, time.Time, error)
	IssueRefreshToken(issuer string) (string, time.Time, error)
	Validate(tokenString string) (*JWTClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
	logger     Logger
}

// TokenServiceOption configures the token service
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock Clock) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.clock = clock
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance. Zero TTLs fall
// back to the defaults.
func NewTokenService(signingKey []byte, accessTTL, refreshTTL time.Duration, opts ...TokenServiceOption) *TokenServiceImpl {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	ts := &TokenServiceImpl{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

var _ TokenService = (*TokenServiceImpl)(nil)

// IssueAccessToken creates a short lived token with email and role claims
func (ts *TokenServiceImpl) IssueAccessToken(user *User, issuer string) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("user is required", errors.CategoryBadInput)
	}

	now := ts.clock.now()
	expires := now.Add(ts.accessTTL)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email:    user.Email,
		UserRole: string(user.Role),
	}

	token, err := ts.sign(claims)
	return token, expires, err
}

// IssueRefreshToken creates a long lived token. It carries no identity,
// ownership lives in the refresh token ledger.
func (ts *TokenServiceImpl) IssueRefreshToken(issuer string) (string, time.Time, error) {
	now := ts.clock.now()
	expires := now.Add(ts.refreshTTL)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := ts.sign(claims)
	return token, expires, err
}

func (ts *TokenServiceImpl) sign(claims *JWTClaims) (string, error) {
	if len(ts.signingKey) == 0 {
		return "", errors.New("JWT signing key is not configured", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string. Expired, malformed and
// tampered tokens all yield ErrInvalidToken.
func (ts *TokenServiceImpl) Validate(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.clock.now),
	)

	if err != nil {
		ts.logger.Debug("token validation failed: %v", err)
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
