package checkout

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
	"github.com/imrishuroy/artstore-orderflow/internal/apperr"
	"github.com/imrishuroy/artstore-orderflow/internal/metrics"
	"github.com/imrishuroy/artstore-orderflow/internal/notify"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

// maxParallelNotifications caps concurrent admin emails.
const maxParallelNotifications = 8

type Verifier struct {
	deps    Deps
	nowFunc func() time.Time
}

func NewVerifier(deps Deps) *Verifier {
	return &Verifier{deps: deps.withDefaults(), nowFunc: time.Now}
}

// Verify settles a pending order. A matching, unexpired code completes it; an expired
// code expires it. Wrong codes leave the order untouched and may be retried.
func (v *Verifier) Verify(ctx context.Context, accountID, orderID, code string) (*orders.Order, error) {
	d := v.deps
	o, err := d.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "could not load order", err)
	}
	if o == nil || o.AccountID != accountID {
		return nil, apperr.New(apperr.NotFound, "order not found")
	}
	if !o.IsPending() {
		d.Metrics.VerificationOutcome(ctx, metrics.OutcomeFinalized)
		return nil, apperr.New(apperr.AlreadyFinalized, "order is already "+string(o.Status))
	}
	if !codesMatch(o.VerificationCode, code) {
		d.Metrics.VerificationOutcome(ctx, metrics.OutcomeInvalid)
		if err := d.Orders.IncrementAttempts(ctx, orderID); err != nil && !errors.Is(err, orders.ErrStatusMismatch) {
			d.Log.WarnContext(ctx, "record failed attempt", "order_id", orderID, "error", err)
		}
		return nil, apperr.New(apperr.InvalidCode, "invalid verification code")
	}

	now := v.nowFunc().UTC()
	if o.CodeExpired(now) {
		if err := v.transition(ctx, orderID, orders.StatusExpired, now); err != nil {
			return nil, err
		}
		d.Metrics.VerificationOutcome(ctx, metrics.OutcomeExpired)
		d.Log.InfoContext(ctx, "order expired", "order_id", orderID, "account_id", accountID)
		return nil, apperr.New(apperr.CodeExpired, "verification code has expired, please check out again")
	}

	if err := v.transition(ctx, orderID, orders.StatusCompleted, now); err != nil {
		return nil, err
	}
	o.Status = orders.StatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	d.Metrics.VerificationOutcome(ctx, metrics.OutcomeCompleted)
	d.Log.InfoContext(ctx, "order completed", "order_id", orderID, "account_id", accountID)

	notifyCtx, cancel := detach(ctx)
	defer cancel()
	v.notifyCompletion(notifyCtx, o)
	return o, nil
}

// transition moves the order out of pending. Losing the race means another request
// finalized it first.
func (v *Verifier) transition(ctx context.Context, orderID string, to orders.Status, at time.Time) error {
	err := v.deps.Orders.UpdateStatus(ctx, orderID, orders.StatusPendingVerification, to, at)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, orders.ErrStatusMismatch):
		v.deps.Metrics.VerificationOutcome(ctx, metrics.OutcomeFinalized)
		return apperr.New(apperr.AlreadyFinalized, "order is already finalized")
	default:
		return apperr.Wrap(apperr.Unavailable, "could not update order", err)
	}
}

// notifyCompletion sends the buyer's downloads and a sale summary to every admin.
// Failures are logged and counted only.
func (v *Verifier) notifyCompletion(ctx context.Context, o *orders.Order) {
	d := v.deps
	buyer, err := d.Accounts.Get(ctx, o.AccountID)
	if err != nil || buyer == nil {
		d.Log.WarnContext(ctx, "buyer lookup for notifications failed", "order_id", o.OrderID, "error", err)
		buyer = &accounts.Account{ID: o.AccountID}
	}
	admins, err := d.Accounts.ListByRole(ctx, accounts.RoleAdmin)
	if err != nil {
		d.Log.WarnContext(ctx, "admin lookup failed", "order_id", o.OrderID, "error", err)
		d.Metrics.NotificationFailed(ctx, string(notify.KindAdminSale))
	}

	var g errgroup.Group
	g.SetLimit(maxParallelNotifications)
	if buyer.Email != "" {
		g.Go(func() error {
			v.send(ctx, o.OrderID, notify.KindFulfillment, func() (notify.Message, error) {
				return d.Composer.Fulfillment(buyer.Email, buyer.DisplayName(), o)
			})
			return nil
		})
	}
	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		g.Go(func() error {
			v.send(ctx, o.OrderID, notify.KindAdminSale, func() (notify.Message, error) {
				return d.Composer.AdminSale(admin.Email, buyer.Email, o)
			})
			return nil
		})
	}
	_ = g.Wait()
}

func (v *Verifier) send(ctx context.Context, orderID string, kind notify.Kind, build func() (notify.Message, error)) {
	msg, err := build()
	if err == nil {
		err = v.deps.Notifier.Notify(ctx, msg)
	}
	if err != nil {
		v.deps.Log.WarnContext(ctx, "notification failed", "order_id", orderID, "kind", kind, "error", err)
		v.deps.Metrics.NotificationFailed(ctx, string(kind))
	}
}
