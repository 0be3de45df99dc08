package httpapi

import (
	"time"

	"github.com/google/uuid"

	auth "github.com/goliatone/go-auth-starter"
)

// UserView is the public representation of an account
type UserView struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name,omitempty"`
	Role            string     `json:"role"`
	Active          bool       `json:"active"`
	Removed         bool       `json:"removed"`
	SignInCount     int        `json:"sign_in_count"`
	CurrentSignInIP string     `json:"current_sign_in_ip,omitempty"`
	LastSignInIP    string     `json:"last_sign_in_ip,omitempty"`
	CurrentSignInOn *time.Time `json:"current_sign_in_on,omitempty"`
	LastSignInOn    *time.Time `json:"last_sign_in_on,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

func NewUserView(user *auth.User) UserView {
	return UserView{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		Role:            string(user.Role),
		Active:          user.IsActive(),
		Removed:         user.IsRemoved(),
		SignInCount:     user.SignInCount,
		CurrentSignInIP: user.CurrentSignInIP,
		LastSignInIP:    user.LastSignInIP,
		CurrentSignInOn: user.CurrentSignInOn,
		LastSignInOn:    user.LastSignInOn,
		CreatedAt:       user.CreatedAt,
	}
}

type UserListView struct {
	Items   []UserView `json:"items"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
}
