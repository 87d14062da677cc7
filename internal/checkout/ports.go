package checkout

import (
	"context"
	"time"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
	"github.com/imrishuroy/artstore-orderflow/internal/catalog"
	"github.com/imrishuroy/artstore-orderflow/internal/idempotency"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

type Accounts interface {
	Get(ctx context.Context, accountID string) (*accounts.Account, error)
	ListByRole(ctx context.Context, role accounts.Role) ([]accounts.Account, error)
}

type Catalog interface {
	BatchGet(ctx context.Context, ids []string) ([]catalog.Artwork, error)
}

type Orders interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	UpdateStatus(ctx context.Context, orderID string, expected, newStatus orders.Status, at time.Time) error
	IncrementAttempts(ctx context.Context, orderID string) error
}

// OrderWriter atomically records a pending order and empties the cart it came from.
type OrderWriter interface {
	CreatePending(ctx context.Context, order orders.Order, cartVersion int64) error
}

type CheckoutKeys interface {
	Get(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error)
}
