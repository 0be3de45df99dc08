package auth

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InviteUserMessage struct {
	Email     string   `json:"email" example:"pepe.rone@example.com" doc:"Invitee email."`
	Role      UserRole `json:"role" example:"member" doc:"Role granted once registered."`
	InvitedBy string   `json:"-"`
}

func (e InviteUserMessage) Type() string { return "user.invite" }

// InviteUserResponse reports whether a pending account was created.
// Inviting an existing email changes nothing.
type InviteUserResponse struct {
	User    *User
	Created bool
}

// InviteUserHandler creates a pending account and starts registration
type InviteUserHandler struct {
	repo              RepositoryManager
	codec             *TimedTokenCodec
	deliverer         Deliverer
	placeholderSecret string
	activity          ActivitySink
	logger            Logger
	clock             Clock
}

func NewInviteUserHandler(repo RepositoryManager, codec *TimedTokenCodec, deliverer Deliverer, placeholderSecret string) *InviteUserHandler {
	return &InviteUserHandler{
		repo:              repo,
		codec:             codec,
		deliverer:         normalizeDeliverer(deliverer),
		placeholderSecret: placeholderSecret,
		activity:          noopActivitySink{},
		logger:            defLogger{},
	}
}

// WithActivitySink sets the sink used to emit invite events.
func (h *InviteUserHandler) WithActivitySink(sink ActivitySink) *InviteUserHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InviteUserHandler) WithLogger(logger Logger) *InviteUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InviteUserHandler) Execute(ctx context.Context, event InviteUserMessage) error {
	_, err := h.Invite(ctx, event)
	return err
}

// Invite runs the handler and returns its response
func (h *InviteUserHandler) Invite(ctx context.Context, event InviteUserMessage) (*InviteUserResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user invite",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InviteUserHandler) execute(ctx context.Context, event InviteUserMessage) (*InviteUserResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	role := event.Role
	if role == "" {
		role = RoleMember
	}
	if !role.IsValid() {
		return nil, goerrors.New("unknown role", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": string(role)})
	}

	// removed accounts still hold their email, RegisterTx reports ErrEmailTaken
	existing, err := h.repo.Users().FindByEmail(ctx, event.Email)
	if err == nil {
		return &InviteUserResponse{User: existing}, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check invited email")
	}

	user := &User{
		Email:        event.Email,
		Role:         role,
		Active:       false,
		PasswordHash: UnusablePasswordHash(h.placeholderSecret),
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = h.repo.Users().RegisterTx(ctx, tx, user)
		return err
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user invite transaction failed")
	}

	token, err := h.codec.Encode(TimedClaims{Email: user.Email})
	if err != nil {
		return nil, err
	}

	if err := h.deliverer.DeliverRegistration(ctx, user.ID, token); err != nil {
		h.logger.Error("registration delivery enqueue failed: %v", err)
	}

	emitActivity(ctx, h.activity, h.logger, h.clock, ActivityEvent{
		EventType: ActivityEventUserInvited,
		ActorID:   event.InvitedBy,
		UserID:    user.ID.String(),
		ToState:   AccountStatePending,
		Metadata:  map[string]any{"email": user.Email, "role": string(role)},
	})

	return &InviteUserResponse{User: user, Created: true}, nil
}
