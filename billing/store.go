package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BillingHistoryLimit caps the payments returned by BillingHistory
const BillingHistoryLimit = 10

// ErrSubscriptionNotFound is returned when the account has no plan
var ErrSubscriptionNotFound = goerrors.New("subscription not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// Store persists billing records
type Store struct {
	subscriptions repository.Repository[*Subscription]
	db            *bun.DB
	now           func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db: db,
		subscriptions: repository.NewRepository(db, repository.ModelHandlers[*Subscription]{
			NewRecord: func() *Subscription { return &Subscription{} },
			GetID: func(record *Subscription) uuid.UUID {
				if record == nil {
					return uuid.Nil
				}
				return record.ID
			},
			SetID: func(record *Subscription, id uuid.UUID) {
				record.ID = id
			},
			GetIdentifier: func() string {
				return "plan"
			},
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Subscribe stores a subscription of userID to plan
func (s *Store) Subscribe(ctx context.Context, userID uuid.UUID, plan string) (*Subscription, error) {
	now := s.now().UTC()
	record := &Subscription{
		ID:        uuid.New(),
		Plan:      plan,
		UserID:    userID,
		CreatedAt: &now,
		UpdatedAt: &now,
	}

	created, err := s.subscriptions.CreateTx(ctx, s.db, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create subscription").
			WithMetadata(map[string]any{"user_id": userID.String(), "plan": plan})
	}
	return created, nil
}

// SubscriptionFor returns the most recent subscription of userID
func (s *Store) SubscriptionFor(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	record := &Subscription{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve subscription")
	}
	return record, nil
}

// RecordPayment stores a payment
func (s *Store) RecordPayment(ctx context.Context, payment *Payment) (*Payment, error) {
	if payment == nil || payment.UserID == uuid.Nil {
		return nil, goerrors.New("payment requires an owner", goerrors.CategoryBadInput)
	}

	now := s.now().UTC()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt == nil {
		payment.CreatedAt = &now
	}
	payment.UpdatedAt = &now

	if _, err := s.db.NewInsert().Model(payment).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record payment")
	}
	return payment, nil
}

// BillingHistory returns the latest payments of userID, newest first
func (s *Store) BillingHistory(ctx context.Context, userID uuid.UUID) ([]*Payment, error) {
	var payments []*Payment
	err := s.db.NewSelect().
		Model(&payments).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(BillingHistoryLimit).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve billing history")
	}
	return payments, nil
}

// SaveCard stores the card on file, flagging it when it expires soon
func (s *Store) SaveCard(ctx context.Context, card *CreditCard) (*CreditCard, error) {
	if card == nil || card.UserID == uuid.Nil {
		return nil, goerrors.New("card requires an owner", goerrors.CategoryBadInput)
	}

	now := s.now().UTC()
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	if card.CreatedAt == nil {
		card.CreatedAt = &now
	}
	card.UpdatedAt = &now
	card.ExpirationDate = card.ExpirationDate.UTC()
	card.IsExpiring = IsExpiringSoon(now, card.ExpirationDate)

	if _, err := s.db.NewInsert().Model(card).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save card")
	}
	return card, nil
}

// MarkExpiringCards flags every card expiring within the delta of
// compare and returns the number of cards updated.
func (s *Store) MarkExpiringCards(ctx context.Context, compare time.Time) (int, error) {
	cutoff := compare.UTC().AddDate(0, IsExpiringDeltaMonths, 0)
	res, err := s.db.NewUpdate().
		Model((*CreditCard)(nil)).
		Set("is_expiring = ?", true).
		Set("updated_at = ?", s.now().UTC()).
		Where("?TableAlias.expiration_date <= ?", cutoff).
		Where("?TableAlias.is_expiring = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark expiring cards")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count expiring cards")
	}
	return int(n), nil
}
