// Package metrics counts checkout, verification and notification outcomes.
package metrics

import "context"

// Checkout rejection reasons.
const (
	ReasonEmptyCart   = "empty_cart"
	ReasonDrift       = "inventory_drift"
	ReasonUnavailable = "unavailable"
)

// Verification outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeExpired   = "expired"
	OutcomeInvalid   = "invalid_code"
	OutcomeFinalized = "already_finalized"
)

type Recorder interface {
	CheckoutInitiated(ctx context.Context)
	CheckoutRejected(ctx context.Context, reason string)
	VerificationOutcome(ctx context.Context, outcome string)
	NotificationFailed(ctx context.Context, kind string)
}

type Noop struct{}

func (Noop) CheckoutInitiated(context.Context)           {}
func (Noop) CheckoutRejected(context.Context, string)    {}
func (Noop) VerificationOutcome(context.Context, string) {}
func (Noop) NotificationFailed(context.Context, string)  {}

// Multi fans every event out to all recorders.
type Multi []Recorder

func (m Multi) CheckoutInitiated(ctx context.Context) {
	for _, r := range m {
		r.CheckoutInitiated(ctx)
	}
}

func (m Multi) CheckoutRejected(ctx context.Context, reason string) {
	for _, r := range m {
		r.CheckoutRejected(ctx, reason)
	}
}

func (m Multi) VerificationOutcome(ctx context.Context, outcome string) {
	for _, r := range m {
		r.VerificationOutcome(ctx, outcome)
	}
}

func (m Multi) NotificationFailed(ctx context.Context, kind string) {
	for _, r := range m {
		r.NotificationFailed(ctx, kind)
	}
}
