package httpapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	auth "github.com/goliatone/go-auth-starter"
)

type TokenRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type PasswordResetRequest struct {
	Email string `json:"email" form:"email"`
}

func (r PasswordResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"reset_token" form:"reset_token"`
	Password string `json:"password" form:"password"`
}

func (r PasswordResetConfirmRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(auth.PasswordMinLength, auth.PasswordMaxLength),
		),
	)
}

type InviteRequest struct {
	Email string `json:"email" form:"email"`
	Role  string `json:"role" form:"role"`
}

func (r InviteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Role, validation.In(roleNames()...)),
	)
}

type RegistrationRequest struct {
	Name            string `json:"name" form:"name"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

func (r RegistrationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(0, 128)),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(auth.PasswordMinLength, auth.PasswordMaxLength),
		),
		validation.Field(&r.ConfirmPassword,
			validation.Required,
			validation.By(auth.ValidateStringEquals(r.Password)),
		),
	)
}

// BulkDeleteRequest selects users by id or, with the all_search_results
// scope, by the search query.
type BulkDeleteRequest struct {
	Scope string   `json:"scope" form:"scope"`
	IDs   []string `json:"bulk_ids" form:"bulk_ids"`
	Query string   `json:"q" form:"q"`
}

func (r BulkDeleteRequest) Validate() error {
	idRules := []validation.Rule{}
	if r.Scope == "" {
		idRules = append(idRules, validation.Required)
	}

	return validation.ValidateStruct(&r,
		validation.Field(&r.Scope, validation.In("", auth.BulkScopeAllSearchResults)),
		validation.Field(&r.IDs, idRules...),
	)
}

func roleNames() []any {
	roles := auth.GetAllRoles()
	out := make([]any, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
