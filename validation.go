package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
)

// ValidatePassword checks the length bounds of a new password
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required,
		validation.Length(PasswordMinLength, PasswordMaxLength),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"password": err.Error()})
	}
	return nil
}

// ValidateStringEquals builds an ozzo rule matching the given string
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values do not match")
		}
		return nil
	}
}
