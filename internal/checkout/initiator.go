// Package checkout turns a cart into a pending order and settles it with a one-time code.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/artstore-orderflow/internal/apperr"
	"github.com/imrishuroy/artstore-orderflow/internal/catalog"
	"github.com/imrishuroy/artstore-orderflow/internal/idempotency"
	"github.com/imrishuroy/artstore-orderflow/internal/metrics"
	"github.com/imrishuroy/artstore-orderflow/internal/money"
	"github.com/imrishuroy/artstore-orderflow/internal/notify"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

// DefaultCodeTTL is how long a verification code stays valid.
const DefaultCodeTTL = 10 * time.Minute

// notifyTimeout bounds a notification send once it no longer follows the request.
const notifyTimeout = 30 * time.Second

// detach keeps the request's values but not its cancellation, so a send for a committed
// order finishes even when the caller goes away.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
}

type Deps struct {
	Accounts Accounts
	Catalog  Catalog
	Orders   Orders
	Writer   OrderWriter
	Keys     CheckoutKeys
	Notifier notify.Notifier
	Composer notify.Composer
	Metrics  metrics.Recorder
	Log      *slog.Logger
	CodeTTL  time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.CodeTTL <= 0 {
		d.CodeTTL = DefaultCodeTTL
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop{}
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return d
}

type Initiator struct {
	deps    Deps
	nowFunc func() time.Time
	newCode func() (string, error)
}

func NewInitiator(deps Deps) *Initiator {
	return &Initiator{deps: deps.withDefaults(), nowFunc: time.Now, newCode: NewCode}
}

// Initiate snapshots the cart into a pending order, clears the cart and emails the code.
// Repeating a checkout of the same cart snapshot returns the order created the first time.
func (in *Initiator) Initiate(ctx context.Context, accountID string) (*orders.Order, error) {
	d := in.deps
	acc, err := d.Accounts.Get(ctx, accountID)
	if err != nil {
		return nil, in.reject(ctx, metrics.ReasonUnavailable, apperr.Wrap(apperr.Unavailable, "could not start checkout", err))
	}
	if acc == nil {
		return nil, apperr.New(apperr.Unauthenticated, "account not found")
	}
	if len(acc.Cart) == 0 {
		return nil, in.reject(ctx, metrics.ReasonEmptyCart, apperr.New(apperr.EmptyCart, "your cart is empty"))
	}

	ids := make([]string, 0, len(acc.Cart))
	for _, l := range acc.Cart {
		ids = append(ids, l.ArtworkID)
	}
	arts, err := d.Catalog.BatchGet(ctx, ids)
	if err != nil {
		return nil, in.reject(ctx, metrics.ReasonUnavailable, apperr.Wrap(apperr.Unavailable, "could not start checkout", err))
	}
	byID := make(map[string]catalog.Artwork, len(arts))
	for _, a := range arts {
		byID[a.ID] = a
	}

	items := make([]orders.Line, 0, len(ids))
	prices := make([]money.Amount, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			d.Log.InfoContext(ctx, "cart references missing artwork", "account_id", accountID, "artwork_id", id)
			return nil, in.reject(ctx, metrics.ReasonDrift, apperr.New(apperr.InventoryDrift, "some items in your cart are no longer available"))
		}
		items = append(items, orders.Line{
			ArtworkID:       a.ID,
			PriceAtPurchase: a.Price,
			Title:           a.Title,
			DownloadAsset:   a.DownloadAsset,
		})
		prices = append(prices, a.Price)
	}

	code, err := in.newCode()
	if err != nil {
		return nil, in.reject(ctx, metrics.ReasonUnavailable, apperr.Wrap(apperr.Unavailable, "could not start checkout", err))
	}
	now := in.nowFunc().UTC()
	order := orders.Order{
		OrderID:          uuid.NewString(),
		AccountID:        acc.ID,
		Items:            items,
		TotalAmount:      money.Sum(prices...),
		OrderDate:        now,
		Status:           orders.StatusPendingVerification,
		VerificationCode: code,
		CodeExpiresAt:    now.Add(d.CodeTTL),
		CheckoutKey:      idempotency.CheckoutKey(acc.ID, acc.CartVersion, ids),
	}

	err = d.Writer.CreatePending(ctx, order, acc.CartVersion)
	switch {
	case errors.Is(err, orders.ErrDuplicateCheckout):
		existing, lookupErr := in.existing(ctx, order.CheckoutKey)
		if lookupErr != nil {
			return nil, in.reject(ctx, metrics.ReasonUnavailable, apperr.Wrap(apperr.Unavailable, "could not start checkout", lookupErr))
		}
		d.Log.InfoContext(ctx, "checkout replayed", "account_id", accountID, "order_id", existing.OrderID)
		return existing, nil
	case errors.Is(err, orders.ErrCartChanged):
		return nil, in.reject(ctx, metrics.ReasonDrift, apperr.Wrap(apperr.InventoryDrift, "your cart changed during checkout, please review it", err))
	case err != nil:
		d.Log.ErrorContext(ctx, "create pending order failed", "account_id", accountID, "error", err)
		return nil, in.reject(ctx, metrics.ReasonUnavailable, apperr.Wrap(apperr.Unavailable, "could not create order", err))
	}

	d.Metrics.CheckoutInitiated(ctx)
	d.Log.InfoContext(ctx, "order created", "account_id", accountID, "order_id", order.OrderID, "total", order.TotalAmount.String())
	sendCtx, cancel := detach(ctx)
	defer cancel()
	if err := in.sendCode(sendCtx, acc.Email, acc.DisplayName(), &order); err != nil {
		d.Log.WarnContext(ctx, "verification code not delivered", "order_id", order.OrderID, "error", err)
		d.Metrics.NotificationFailed(ctx, string(notify.KindCheckoutCode))
	}
	return &order, nil
}

// ResendCode emails the unchanged code of a pending, unexpired order again.
func (in *Initiator) ResendCode(ctx context.Context, accountID, orderID string) error {
	d := in.deps
	o, err := d.Orders.Get(ctx, orderID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "could not load order", err)
	}
	if o == nil || o.AccountID != accountID {
		return apperr.New(apperr.NotFound, "order not found")
	}
	if !o.IsPending() {
		return apperr.New(apperr.AlreadyFinalized, "order is already "+string(o.Status))
	}
	if o.CodeExpired(in.nowFunc()) {
		return apperr.New(apperr.CodeExpired, "verification code has expired")
	}
	acc, err := d.Accounts.Get(ctx, accountID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "could not load account", err)
	}
	if acc == nil {
		return apperr.New(apperr.Unauthenticated, "account not found")
	}
	sendCtx, cancel := detach(ctx)
	defer cancel()
	if err := in.sendCode(sendCtx, acc.Email, acc.DisplayName(), o); err != nil {
		d.Metrics.NotificationFailed(ctx, string(notify.KindCheckoutCode))
		return apperr.Wrap(apperr.Unavailable, "could not send verification code", err)
	}
	return nil
}

func (in *Initiator) sendCode(ctx context.Context, email, name string, o *orders.Order) error {
	msg, err := in.deps.Composer.CheckoutCode(email, name, o)
	if err != nil {
		return err
	}
	return in.deps.Notifier.Notify(ctx, msg)
}

func (in *Initiator) existing(ctx context.Context, key string) (*orders.Order, error) {
	rec, err := in.deps.Keys.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.OrderID == "" {
		return nil, errors.New("checkout key has no order")
	}
	o, err := in.deps.Orders.Get(ctx, rec.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errors.New("order for checkout key not found: " + rec.OrderID)
	}
	return o, nil
}

func (in *Initiator) reject(ctx context.Context, reason string, err error) error {
	in.deps.Metrics.CheckoutRejected(ctx, reason)
	return err
}
