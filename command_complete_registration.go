package auth

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const TextCodeAlreadyRegistered = "ALREADY_REGISTERED"

// ErrAlreadyRegistered is returned when a registration link is followed
// for an account that is no longer pending.
var ErrAlreadyRegistered = goerrors.New("registration was already completed", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyRegistered).
	WithCode(goerrors.CodeConflict)

type CompleteRegistrationMessage struct {
	UserID          uuid.UUID `json:"-"`
	Token           string    `json:"-"`
	Name            string    `json:"name" example:"Pepe Rone" doc:"Display name."`
	Password        string    `json:"password" doc:"Password"`
	ConfirmPassword string    `json:"confirm_password" doc:"Password confirmation"`
}

func (e CompleteRegistrationMessage) Type() string { return "user.registration.complete" }

// CompleteRegistrationHandler turns a pending account into an active one
type CompleteRegistrationHandler struct {
	repo     RepositoryManager
	codec    *TimedTokenCodec
	activity ActivitySink
	logger   Logger
	clock    Clock
}

func NewCompleteRegistrationHandler(repo RepositoryManager, codec *TimedTokenCodec) *CompleteRegistrationHandler {
	return &CompleteRegistrationHandler{
		repo:     repo,
		codec:    codec,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit registration events.
func (h *CompleteRegistrationHandler) WithActivitySink(sink ActivitySink) *CompleteRegistrationHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *CompleteRegistrationHandler) WithLogger(logger Logger) *CompleteRegistrationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CompleteRegistrationHandler) Execute(ctx context.Context, event CompleteRegistrationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CompleteRegistrationHandler) execute(ctx context.Context, event CompleteRegistrationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := ValidatePassword(event.Password); err != nil {
		return err
	}

	if event.Password != event.ConfirmPassword {
		return ErrPasswordMismatch
	}

	claims, err := h.codec.Decode(event.Token, RegistrationTokenTTL)
	if err != nil {
		return err
	}

	user, err := h.repo.Users().FindByID(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve invited user")
	}

	if normalizeEmail(claims.Email) != user.Email {
		return ErrInvalidToken
	}

	from := AccountStateOf(user)
	if from != AccountStatePending || !CanTransition(from, AccountStateActive) {
		return ErrAlreadyRegistered
	}

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user.Name = event.Name
	user.PasswordHash = passwordHash
	user.Active = true

	if _, err := h.repo.Users().Save(ctx, user); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to complete registration")
	}

	emitActivity(ctx, h.activity, h.logger, h.clock, ActivityEvent{
		EventType: ActivityEventRegistrationCompleted,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
		FromState: from,
		ToState:   AccountStateActive,
		Metadata:  map[string]any{"email": user.Email},
	})

	return nil
}
