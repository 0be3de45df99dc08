package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Subscription links an account to a plan
type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:sub"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Plan          string     `bun:"plan" json:"plan"`
	UserID        uuid.UUID  `bun:"user_id,type:uuid" json:"user_id"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// Payment is an invoice line. Card details are copied so the history
// survives card changes and cancelled subscriptions.
type Payment struct {
	bun.BaseModel  `bun:"table:payments,alias:pay"`
	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Plan           string     `bun:"plan" json:"plan"`
	ReceiptNumber  string     `bun:"receipt_number" json:"receipt_number"`
	Description    string     `bun:"description" json:"description"`
	PeriodStart    *time.Time `bun:"period_start,nullzero" json:"period_start,omitempty"`
	PeriodEnd      *time.Time `bun:"period_end,nullzero" json:"period_end,omitempty"`
	Currency       string     `bun:"currency" json:"currency"`
	Tax            int        `bun:"tax" json:"tax"`
	Total          int        `bun:"total" json:"total"`
	Brand          string     `bun:"brand" json:"brand"`
	Last4          int        `bun:"last4" json:"last4"`
	ExpirationDate *time.Time `bun:"expiration_date,nullzero" json:"expiration_date,omitempty"`
	UserID         uuid.UUID  `bun:"user_id,type:uuid" json:"user_id"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// CreditCard is the card on file for an account
type CreditCard struct {
	bun.BaseModel  `bun:"table:cards,alias:card"`
	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Brand          string     `bun:"brand" json:"brand"`
	Last4          int        `bun:"last4" json:"last4"`
	ExpirationDate time.Time  `bun:"expiration_date" json:"expiration_date"`
	IsExpiring     bool       `bun:"is_expiring,notnull" json:"is_expiring"`
	UserID         uuid.UUID  `bun:"user_id,type:uuid" json:"user_id"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsExpiringDeltaMonths is how far ahead a card counts as expiring
const IsExpiringDeltaMonths = 2

// IsExpiringSoon reports whether expiration falls within
// IsExpiringDeltaMonths of compare.
func IsExpiringSoon(compare, expiration time.Time) bool {
	return !expiration.After(compare.AddDate(0, IsExpiringDeltaMonths, 0))
}
