package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskDeliverPasswordReset = "deliver_password_reset"
	TaskDeliverRegistration  = "deliver_registration_email"

	defaultQueueName = "auth:deliveries"
	deadLetterSuffix = ":dead"
)

// Task is a queued delivery job
type Task struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UserID     uuid.UUID `json:"user_id"`
	Token      string    `json:"token"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	LastError  string    `json:"last_error,omitempty"`
}

// Queue is a FIFO list in redis. Producers LPUSH, workers BRPOP.
type Queue struct {
	client redis.UniversalClient
	name   string
}

func NewQueue(client redis.UniversalClient, name string) *Queue {
	if name == "" {
		name = defaultQueueName
	}
	return &Queue{client: client, name: name}
}

// Name is the redis key of the list
func (q *Queue) Name() string {
	return q.name
}

// DeadLetterName is the key holding tasks that ran out of attempts
func (q *Queue) DeadLetterName() string {
	return q.name + deadLetterSuffix
}

func (q *Queue) Push(ctx context.Context, task Task) error {
	return q.push(ctx, q.name, task)
}

// Bury moves a task to the dead letter list
func (q *Queue) Bury(ctx context.Context, task Task) error {
	return q.push(ctx, q.DeadLetterName(), task)
}

func (q *Queue) push(ctx context.Context, key string, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode task")
	}

	if err := q.client.LPush(ctx, key, payload).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to enqueue task").
			WithMetadata(map[string]any{"queue": key, "task": task.Name})
	}
	return nil
}

// Pop waits up to timeout for a task. It returns nil without error when
// the wait times out.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*Task, error) {
	res, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to dequeue task")
	}

	if len(res) != 2 {
		return nil, goerrors.New("unexpected redis response", goerrors.CategoryInternal)
	}

	task := &Task{}
	if err := json.Unmarshal([]byte(res[1]), task); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode task")
	}
	return task, nil
}

// Len returns the number of pending tasks
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}
