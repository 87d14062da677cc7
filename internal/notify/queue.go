package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Publisher is satisfied by aws.Publisher.
type Publisher interface {
	SendMessage(ctx context.Context, messageBody string, attributes map[string]string) error
}

// Queue hands messages to the notification worker over SQS.
type Queue struct {
	pub Publisher
}

func NewQueue(pub Publisher) *Queue { return &Queue{pub: pub} }

func (q *Queue) Notify(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return q.pub.SendMessage(ctx, string(body), map[string]string{
		"kind":     string(msg.Kind),
		"order_id": msg.OrderID,
	})
}

// Decode parses a queued message and checks the fields delivery needs.
func Decode(body string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if msg.ID == "" || msg.To == "" {
		return Message{}, fmt.Errorf("message missing id or recipient")
	}
	return msg, nil
}
