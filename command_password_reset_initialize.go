package auth

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset.initialize" }

// InitializePasswordResetHandler issues a reset token for a known email
// and hands it to the Deliverer. Unknown emails are a silent no-op so
// callers cannot tell which accounts exist.
type InitializePasswordResetHandler struct {
	repo      RepositoryManager
	codec     *TimedTokenCodec
	deliverer Deliverer
	activity  ActivitySink
	logger    Logger
	clock     Clock
}

func NewInitializePasswordResetHandler(repo RepositoryManager, codec *TimedTokenCodec, deliverer Deliverer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:      repo,
		codec:     codec,
		deliverer: normalizeDeliverer(deliverer),
		activity:  noopActivitySink{},
		logger:    defLogger{},
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().FindByEmail(ctx, event.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := h.codec.Encode(TimedClaims{Email: user.Email})
	if err != nil {
		return err
	}

	if err := h.deliverer.DeliverPasswordReset(ctx, user.ID, token); err != nil {
		h.logger.Error("password reset delivery enqueue failed: %v", err)
	}

	emitActivity(ctx, h.activity, h.logger, h.clock, ActivityEvent{
		EventType: ActivityEventPasswordResetRequested,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"email": user.Email},
	})

	return nil
}
