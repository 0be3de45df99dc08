package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens is the write mostly ledger of issued refresh tokens.
// Verification never reads it.
type RefreshTokens interface {
	Record(ctx context.Context, userID uuid.UUID, token string, expiration time.Time) (*RefreshToken, error)
	RecordTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string, expiration time.Time) (*RefreshToken, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*RefreshToken, error)
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db    *bun.DB
	clock Clock
}

var _ RefreshTokens = (*refreshTokens)(nil)

func NewRefreshTokensRepository(db *bun.DB, clock Clock) RefreshTokens {
	handlers := repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken {
			return &RefreshToken{}
		},
		GetID: func(record *RefreshToken) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *RefreshToken, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token"
		},
	}

	return &refreshTokens{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
		clock:      clock,
	}
}

func (r *refreshTokens) Record(ctx context.Context, userID uuid.UUID, token string, expiration time.Time) (*RefreshToken, error) {
	return r.RecordTx(ctx, r.db, userID, token, expiration)
}

func (r *refreshTokens) RecordTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string, expiration time.Time) (*RefreshToken, error) {
	if userID == uuid.Nil || token == "" {
		return nil, goerrors.New("refresh token requires an owner and a value", goerrors.CategoryBadInput)
	}

	now := r.clock.now()
	record := &RefreshToken{
		ID:              uuid.New(),
		UserID:          userID,
		Token:           token,
		TokenExpiration: expiration.UTC(),
		CreatedAt:       &now,
		UpdatedAt:       &now,
	}

	created, err := r.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record refresh token").
			WithMetadata(map[string]any{"user_id": userID.String()})
	}

	return created, nil
}

func (r *refreshTokens) ListByUser(ctx context.Context, userID uuid.UUID) ([]*RefreshToken, error) {
	var records []*RefreshToken
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list refresh tokens")
	}
	return records, nil
}
