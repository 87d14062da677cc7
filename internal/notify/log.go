package notify

import (
	"context"
	"log/slog"
)

// Log writes messages to the logger instead of sending them. Used in local runs.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log { return &Log{log: log} }

func (l *Log) Notify(ctx context.Context, msg Message) error {
	l.log.InfoContext(ctx, "notification",
		"id", msg.ID,
		"kind", msg.Kind,
		"order_id", msg.OrderID,
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
