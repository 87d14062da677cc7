package handlers

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
	"github.com/imrishuroy/artstore-orderflow/internal/cart"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
	"github.com/imrishuroy/artstore-orderflow/internal/stats"
	"github.com/imrishuroy/artstore-orderflow/internal/validation"
)

type AccountResolver interface {
	Get(ctx context.Context, accountID string) (*accounts.Account, error)
}

type CartService interface {
	List(ctx context.Context, accountID string) ([]cart.Entry, error)
	Add(ctx context.Context, accountID, artworkID string) (bool, error)
	Remove(ctx context.Context, accountID, artworkID string) error
}

type CheckoutService interface {
	Initiate(ctx context.Context, accountID string) (*orders.Order, error)
	ResendCode(ctx context.Context, accountID, orderID string) error
}

type VerifyService interface {
	Verify(ctx context.Context, accountID, orderID, code string) (*orders.Order, error)
}

type StatsService interface {
	Summary(ctx context.Context) (stats.Summary, error)
	SalesOverTime(ctx context.Context) ([]stats.PeriodSales, error)
	TopArtworks(ctx context.Context, limit int) ([]stats.ArtworkSales, error)
	ArchiveCompleted(ctx context.Context) (int, error)
}

// HandlerConfig groups dependencies for the API handlers.
type HandlerConfig struct {
	Accounts AccountResolver
	Cart     CartService
	Checkout CheckoutService
	Verifier VerifyService
	Stats    StatsService
	Log      *slog.Logger
}

// RegisterRoutes registers the cart, checkout and admin statistics routes under /api.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &handler{cfg: cfg, v: validation.New()}

	api := r.Group("/api", Authenticate(cfg.Accounts, cfg.Log))

	userAPI := api.Group("", RequireAccount())
	userAPI.GET("/cart", h.listCart)
	userAPI.POST("/cart", h.addToCart)
	userAPI.DELETE("/cart", h.removeFromCart)
	userAPI.POST("/checkout", h.initiateCheckout)
	userAPI.POST("/checkout/verify", h.verifyCheckout)
	userAPI.POST("/checkout/resend", h.resendCode)

	admin := api.Group("/admin/statistics", RequireAccount(), RequireAdmin())
	admin.GET("/summary", h.summary)
	admin.GET("/sales-over-time", h.salesOverTime)
	admin.GET("/top-products", h.topProducts)
	admin.POST("/archive-old", h.archiveOld)
}

type handler struct {
	cfg HandlerConfig
	v   *validatorv10.Validate
}
