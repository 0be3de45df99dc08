package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	auth "github.com/goliatone/go-auth-starter"
)

// Enqueuer hands delivery work to the queue. It only waits for the push
// itself, the email is sent later by a Worker.
type Enqueuer struct {
	queue *Queue
	now   func() time.Time
}

var _ auth.Deliverer = (*Enqueuer)(nil)

func NewEnqueuer(queue *Queue) *Enqueuer {
	return &Enqueuer{queue: queue, now: time.Now}
}

func (e *Enqueuer) DeliverPasswordReset(ctx context.Context, userID uuid.UUID, token string) error {
	return e.enqueue(ctx, TaskDeliverPasswordReset, userID, token)
}

func (e *Enqueuer) DeliverRegistration(ctx context.Context, userID uuid.UUID, token string) error {
	return e.enqueue(ctx, TaskDeliverRegistration, userID, token)
}

func (e *Enqueuer) enqueue(ctx context.Context, name string, userID uuid.UUID, token string) error {
	return e.queue.Push(ctx, Task{
		ID:         uuid.NewString(),
		Name:       name,
		UserID:     userID,
		Token:      token,
		EnqueuedAt: e.now().UTC(),
	})
}
