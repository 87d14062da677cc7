package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid delivers messages through the SendGrid v3 mail API.
type SendGrid struct {
	client   mailSender
	from     string
	fromName string
	log      *slog.Logger
}

func NewSendGrid(apiKey, from, fromName string, log *slog.Logger) (*SendGrid, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if from == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	return &SendGrid{client: sendgrid.NewSendClient(apiKey), from: from, fromName: fromName, log: log}, nil
}

func (s *SendGrid) Notify(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("to address is empty")
	}
	html := msg.HTML
	if html == "" {
		html = fmt.Sprintf("<pre>%s</pre>", msg.Text)
	}
	email := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Text,
		html,
	)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}
	s.log.Debug("mail sent", "status", resp.StatusCode, "kind", msg.Kind, "order_id", msg.OrderID)
	return nil
}
