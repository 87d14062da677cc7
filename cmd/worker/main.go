package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/artstore-orderflow/internal/aws"
	"github.com/imrishuroy/artstore-orderflow/internal/config"
	"github.com/imrishuroy/artstore-orderflow/internal/idempotency"
	"github.com/imrishuroy/artstore-orderflow/internal/logger"
	"github.com/imrishuroy/artstore-orderflow/internal/notify"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "artstore-worker", Env: cfg.AppEnv, Level: cfg.LogLevel})

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Error("failed to init aws clients", "error", err)
		os.Exit(1)
	}

	sender, err := newSender(cfg, log)
	if err != nil {
		log.Error("failed to init notifier", "error", err)
		os.Exit(1)
	}

	p := NewProcessor(idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL), sender, log)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"id":"local-1","kind":"checkout_code","to":"dev@example.com","subject":"local","text":"hello"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		resp, _ := p.Handle(context.Background(), event)
		if len(resp.BatchItemFailures) > 0 {
			log.Error("local handler failed", "failures", len(resp.BatchItemFailures))
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}

// newSender delivers through SendGrid when a key is configured. Without a key only
// NOTIFIER=log is accepted.
func newSender(cfg config.Config, log *slog.Logger) (notify.Notifier, error) {
	if cfg.SendGridAPIKey != "" {
		sg, err := notify.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, cfg.StoreName, log)
		if err != nil {
			return nil, err
		}
		return sg, nil
	}
	if cfg.Notifier == config.NotifierLog {
		log.Warn("SENDGRID_API_KEY not set; notifications are only logged")
		return notify.NewLog(log), nil
	}
	return nil, fmt.Errorf("worker needs SENDGRID_API_KEY for NOTIFIER=%s", cfg.Notifier)
}
