package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/artstore-orderflow/internal/idempotency"
	"github.com/imrishuroy/artstore-orderflow/internal/notify"
)

// DeliveryLog records which queued messages were already delivered.
type DeliveryLog interface {
	CreateIfNotExists(ctx context.Context, key, orderID string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error)
	Reclaim(ctx context.Context, key string) (bool, error)
	MarkDone(ctx context.Context, key string) error
	MarkFailed(ctx context.Context, key, note string) error
}

// Processor delivers queued notifications at most once per message id.
type Processor struct {
	deliveries DeliveryLog
	sender     notify.Notifier
	log        *slog.Logger
}

// NewProcessor creates a new worker processor with its collaborators injected.
func NewProcessor(deliveries DeliveryLog, sender notify.Notifier, log *slog.Logger) *Processor {
	return &Processor{deliveries: deliveries, sender: sender, log: log}
}

// Handle processes an SQS batch. Failed records are reported individually so SQS retries
// only those and eventually moves them to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.ErrorContext(ctx, "worker error", "message_id", rec.MessageId, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	msg, err := notify.Decode(rec.Body)
	if err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	key := idempotency.NotificationKey(msg.ID)

	// Step 1: claim the delivery
	created, err := p.deliveries.CreateIfNotExists(ctx, key, msg.OrderID)
	if err != nil {
		return fmt.Errorf("claim delivery: %w", err)
	}
	if !created {
		existing, err := p.deliveries.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read delivery: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("delivery record %s vanished", key)
		}
		switch existing.Status {
		case idempotency.StatusDone:
			p.log.InfoContext(ctx, "duplicate notification skipped", "id", msg.ID, "order_id", msg.OrderID)
			return nil
		case idempotency.StatusFailed:
			ok, err := p.deliveries.Reclaim(ctx, key)
			if err != nil {
				return fmt.Errorf("reclaim delivery: %w", err)
			}
			if !ok {
				return fmt.Errorf("delivery %s taken by another worker", msg.ID)
			}
		case idempotency.StatusInProgress:
			return fmt.Errorf("delivery %s in progress elsewhere", msg.ID)
		default:
			return fmt.Errorf("unexpected delivery status %q for %s", existing.Status, msg.ID)
		}
	}

	// Step 2: send
	if err := p.sender.Notify(ctx, msg); err != nil {
		if markErr := p.deliveries.MarkFailed(ctx, key, err.Error()); markErr != nil {
			p.log.WarnContext(ctx, "mark delivery failed", "id", msg.ID, "error", markErr)
		}
		return fmt.Errorf("send %s: %w", msg.Kind, err)
	}

	// Step 3: remember the delivery
	if err := p.deliveries.MarkDone(ctx, key); err != nil {
		return fmt.Errorf("mark delivery done: %w", err)
	}
	p.log.InfoContext(ctx, "notification delivered", "id", msg.ID, "kind", msg.Kind, "order_id", msg.OrderID)
	return nil
}
