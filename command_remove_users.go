package auth

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type RemoveUserMessage struct {
	UserID  uuid.UUID `json:"-"`
	ActorID string    `json:"-"`
}

func (e RemoveUserMessage) Type() string { return "user.remove" }

// RemoveUsersMessage removes many users at once. With the
// all_search_results scope IDs is ignored and Query selects the rows.
type RemoveUsersMessage struct {
	Scope   string   `json:"scope"`
	IDs     []string `json:"bulk_ids"`
	Query   string   `json:"q"`
	ActorID string   `json:"-"`
}

func (e RemoveUsersMessage) Type() string { return "user.remove.bulk" }

// RemoveUsersHandler soft deletes accounts. The acting admin is never
// part of a bulk removal.
type RemoveUsersHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	clock    Clock
}

func NewRemoveUsersHandler(repo RepositoryManager) *RemoveUsersHandler {
	return &RemoveUsersHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit removal events.
func (h *RemoveUsersHandler) WithActivitySink(sink ActivitySink) *RemoveUsersHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RemoveUsersHandler) WithLogger(logger Logger) *RemoveUsersHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RemoveUsersHandler) Execute(ctx context.Context, event RemoveUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during user removal")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().FindByID(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for removal")
	}

	from := AccountStateOf(user)
	if !CanTransition(from, AccountStateRemoved) {
		return ErrUserNotFound
	}

	if err := h.repo.Users().SoftDelete(ctx, user); err != nil {
		return err
	}

	emitActivity(ctx, h.activity, h.logger, h.clock, ActivityEvent{
		EventType: ActivityEventUserRemoved,
		ActorID:   event.ActorID,
		UserID:    user.ID.String(),
		FromState: from,
		ToState:   AccountStateRemoved,
	})

	return nil
}

// ExecuteBulk removes the resolved users and returns how many rows
// were flagged.
func (h *RemoveUsersHandler) ExecuteBulk(ctx context.Context, event RemoveUsersMessage) (int, error) {
	select {
	case <-ctx.Done():
		return 0, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during bulk user removal")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var omit []string
	if event.ActorID != "" {
		omit = append(omit, event.ActorID)
	}

	ids, err := h.repo.Users().GetBulkActionIDs(ctx, event.Scope, event.IDs, omit, event.Query)
	if err != nil {
		return 0, err
	}

	count, err := h.repo.Users().BulkDelete(ctx, ids)
	if err != nil {
		return 0, err
	}

	emitActivity(ctx, h.activity, h.logger, h.clock, ActivityEvent{
		EventType: ActivityEventUserRemoved,
		ActorID:   event.ActorID,
		ToState:   AccountStateRemoved,
		Metadata: map[string]any{
			"ids":   ids,
			"count": count,
			"scope": event.Scope,
		},
	})

	return count, nil
}
