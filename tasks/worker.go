package tasks

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/mailer"
)

const (
	DefaultMaxAttempts = 3
	defaultPollTimeout = time.Second

	OutcomeSent    = "sent"
	OutcomeRetried = "retried"
	OutcomeBuried  = "buried"
	OutcomeDropped = "dropped"
)

// errPermanent marks failures a retry cannot fix
var errPermanent = errors.New("permanent task failure")

// WorkerOptions configures a Worker
type WorkerOptions struct {
	From          string
	PublicBaseURL string
	MaxAttempts   int
	PollTimeout   time.Duration
	Logger        auth.Logger
	// Observe is called once per processed task with its outcome
	Observe func(task, outcome string)
}

// Worker consumes delivery tasks and sends the emails
type Worker struct {
	queue  *Queue
	users  auth.UserFinder
	sender mailer.Sender
	opts   WorkerOptions
}

func NewWorker(queue *Queue, users auth.UserFinder, sender mailer.Sender, opts WorkerOptions) *Worker {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaultPollTimeout
	}
	if opts.Observe == nil {
		opts.Observe = func(string, string) {}
	}
	return &Worker{queue: queue, users: users, sender: sender, opts: opts}
}

// Run processes tasks until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := w.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logError("worker dequeue error: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.opts.PollTimeout):
			}
		}
	}
}

// ProcessNext handles at most one task. It reports whether a task was
// taken from the queue. Handler failures are retried or buried and do
// not surface as an error.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	task, err := w.queue.Pop(ctx, w.opts.PollTimeout)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	task.Attempts++
	err = w.Handle(ctx, *task)
	switch {
	case err == nil:
		w.opts.Observe(task.Name, OutcomeSent)
	case errors.Is(err, errPermanent):
		w.logError("dropping task %s (%s): %v", task.ID, task.Name, err)
		w.opts.Observe(task.Name, OutcomeDropped)
	case task.Attempts < w.opts.MaxAttempts:
		task.LastError = err.Error()
		w.logError("retrying task %s (%s) attempt %d: %v", task.ID, task.Name, task.Attempts, err)
		w.opts.Observe(task.Name, OutcomeRetried)
		return true, w.queue.Push(ctx, *task)
	default:
		task.LastError = err.Error()
		w.logError("burying task %s (%s) after %d attempts: %v", task.ID, task.Name, task.Attempts, err)
		w.opts.Observe(task.Name, OutcomeBuried)
		return true, w.queue.Bury(ctx, *task)
	}

	return true, nil
}

// Handle renders and sends the email for task
func (w *Worker) Handle(ctx context.Context, task Task) error {
	user, err := w.users.FindByID(ctx, task.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return errors.Join(errPermanent, err)
		}
		return err
	}

	data := mailer.LinkData{Email: user.Email, Name: user.Name}

	var (
		subject string
		body    string
	)

	switch task.Name {
	case TaskDeliverPasswordReset:
		subject = mailer.PasswordResetSubject
		data.Link = mailer.PasswordResetLink(w.opts.PublicBaseURL, task.Token)
		body, err = mailer.RenderPasswordReset(data)
	case TaskDeliverRegistration:
		subject = mailer.RegistrationSubject
		data.Link = mailer.RegistrationLink(w.opts.PublicBaseURL, user.ID.String(), task.Token)
		body, err = mailer.RenderRegistration(data)
	default:
		return errors.Join(errPermanent, goerrors.New("unknown task", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"task": task.Name}))
	}
	if err != nil {
		return errors.Join(errPermanent, err)
	}

	return w.sender.Send(ctx, mailer.Message{
		From:    w.opts.From,
		To:      user.Email,
		Subject: subject,
		Body:    body,
	})
}

func (w *Worker) logError(format string, args ...any) {
	if w.opts.Logger != nil {
		w.opts.Logger.Error(format, args...)
	}
}
