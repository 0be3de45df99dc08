package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidToken     = "INVALID_TOKEN"
	TextCodeWrongCredentials = "WRONG_CREDENTIALS"
	TextCodeAccountDisabled  = "ACCOUNT_DISABLED"
	TextCodeForbidden        = "FORBIDDEN"
	TextCodeEmailTaken       = "EMAIL_TAKEN"
	TextCodePasswordMismatch = "PASSWORD_MISMATCH"
)

// ErrInvalidToken covers expired, tampered and malformed tokens alike.
var ErrInvalidToken = goerrors.New("token is invalid or expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrWrongCredentials is returned for unknown accounts and bad passwords.
var ErrWrongCredentials = goerrors.New("Wrong email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeWrongCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDisabled is returned when the account is not active
var ErrAccountDisabled = goerrors.New("This account has been disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrForbidden is returned when the role claim is not allowed
var ErrForbidden = goerrors.New("insufficient role for this operation", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrEmailTaken is returned when the email belongs to another row,
// removed accounts included.
var ErrEmailTaken = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrPasswordMismatch is returned when password and confirmation differ
var ErrPasswordMismatch = goerrors.New("passwords must match", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotFound is returned by finders when no live record matches
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// IsUniqueViolation checks driver messages for postgres and sqlite
// unique constraint failures.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate=23505")
}
