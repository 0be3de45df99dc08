package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string    `bun:"password,notnull" json:"-"`
	Name          string    `bun:"name" json:"name,omitempty"`
	Role          UserRole  `bun:"role,notnull" json:"role"`
	Active        bool      `bun:"is_active,notnull" json:"is_active"`

	// Activity tracking, each current/last pair is updated together
	SignInCount      int        `bun:"sign_in_count,notnull" json:"sign_in_count"`
	CurrentSignInOn  *time.Time `bun:"current_sign_in_on,nullzero" json:"current_sign_in_on,omitempty"`
	CurrentSignInIP  string     `bun:"current_sign_in_ip" json:"current_sign_in_ip,omitempty"`
	LastSignInOn     *time.Time `bun:"last_sign_in_on,nullzero" json:"last_sign_in_on,omitempty"`
	LastSignInIP     string     `bun:"last_sign_in_ip" json:"last_sign_in_ip,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`

	Tokens []*RefreshToken `bun:"rel:has-many,join:id=user_id" json:"-"`
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u != nil && u.Active
}

// IsRemoved is the soft deletion flag.
func (u *User) IsRemoved() bool {
	return u != nil && u.DeletedAt != nil
}

// HasUsablePassword is false for invited accounts that did not
// finish registration.
func (u *User) HasUsablePassword() bool {
	return u != nil && HasUsablePassword(u.PasswordHash)
}

// RefreshToken is a ledger entry for an issued refresh token
type RefreshToken struct {
	bun.BaseModel   `bun:"table:tokens,alias:tok"`
	ID              uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Token           string     `bun:"token,notnull" json:"token"`
	TokenExpiration time.Time  `bun:"token_expiration,notnull" json:"token_expiration"`
	UserID          uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	User            *User      `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}
