// Package notify formats and delivers customer and admin emails.
package notify

import "context"

type Kind string

const (
	KindCheckoutCode Kind = "checkout_code"
	KindFulfillment  Kind = "fulfillment"
	KindAdminSale    Kind = "admin_sale"
)

// Message is a rendered email. It is also the body of queued notifications.
type Message struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	OrderID string `json:"orderId,omitempty"`
	To      string `json:"to"`
	ToName  string `json:"toName,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Notifier delivers a message or reports why it could not.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}
