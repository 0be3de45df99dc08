package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// PasswordResetTokenTTL is the window for password reset links
	PasswordResetTokenTTL = time.Hour
	// RegistrationTokenTTL is the window for invite links
	RegistrationTokenTTL = 4 * time.Hour
)

const timedTokenPurpose = "account"

// TimedClaims is the payload of a one-off account token
type TimedClaims struct {
	Email    string `json:"email"`
	Purpose  string `json:"purpose"`
	IssuedAt int64  `json:"iat"`
}

// GetExpirationTime implements jwt.Claims. Timed tokens carry no expiry,
// the window is chosen by the caller at decode time.
func (c TimedClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuedAt implements jwt.Claims
func (c TimedClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

// GetNotBefore implements jwt.Claims
func (c TimedClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims
func (c TimedClaims) GetIssuer() (string, error) { return "", nil }

// GetSubject implements jwt.Claims
func (c TimedClaims) GetSubject() (string, error) { return c.Email, nil }

// GetAudience implements jwt.Claims
func (c TimedClaims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// IssuedAtTime returns iat as time
func (c TimedClaims) IssuedAtTime() time.Time {
	return time.Unix(c.IssuedAt, 0).UTC()
}

// TimedTokenCodec signs small claim sets together with their issuance
// time using the application secret.
type TimedTokenCodec struct {
	secret []byte
	clock  Clock
}

// TimedTokenOption configures the codec
type TimedTokenOption func(*TimedTokenCodec)

// WithTimedTokenClock injects a custom clock (useful for tests).
func WithTimedTokenClock(clock Clock) TimedTokenOption {
	return func(c *TimedTokenCodec) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewTimedTokenCodec creates a codec signing with secret
func NewTimedTokenCodec(secret []byte, opts ...TimedTokenOption) *TimedTokenCodec {
	c := &TimedTokenCodec{secret: secret}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Encode signs claims and stamps the issuance time
func (c *TimedTokenCodec) Encode(claims TimedClaims) (string, error) {
	if len(c.secret) == 0 {
		return "", goerrors.New("timed token secret is not configured", goerrors.CategoryInternal)
	}

	claims.Purpose = timedTokenPurpose
	claims.IssuedAt = c.clock.now().Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign timed token")
	}
	return signed, nil
}

// Decode verifies signature and age. Every failure mode returns
// ErrInvalidToken.
func (c *TimedTokenCodec) Decode(raw string, maxAge time.Duration) (*TimedClaims, error) {
	if raw == "" || len(c.secret) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &TimedClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Purpose != timedTokenPurpose || claims.Email == "" || claims.IssuedAt == 0 {
		return nil, ErrInvalidToken
	}

	// iat has second precision
	age := c.clock.now().Truncate(time.Second).Sub(claims.IssuedAtTime())
	if age < 0 || age > maxAge {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
