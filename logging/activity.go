package logging

import (
	"context"
	"log/slog"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/activitymap"
)

// ActivitySink writes account events to the audit log
func (a *Adapter) ActivitySink() auth.ActivitySink {
	return auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		record := activitymap.Normalize(event)

		attrs := []any{
			slog.String("verb", record.Verb),
			slog.String("actor_id", record.ActorID),
			slog.String("channel", record.Channel),
			slog.Time("occurred_at", record.OccurredAt),
		}
		if record.ObjectID != "" {
			attrs = append(attrs,
				slog.String("object_type", record.ObjectType),
				slog.String("object_id", record.ObjectID),
			)
		}
		if len(record.Metadata) > 0 {
			attrs = append(attrs, slog.Any("metadata", record.Metadata))
		}

		a.logger.InfoContext(ctx, "account activity", attrs...)
		return nil
	})
}
