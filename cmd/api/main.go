package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
	"github.com/imrishuroy/artstore-orderflow/internal/aws"
	"github.com/imrishuroy/artstore-orderflow/internal/cart"
	"github.com/imrishuroy/artstore-orderflow/internal/catalog"
	"github.com/imrishuroy/artstore-orderflow/internal/checkout"
	"github.com/imrishuroy/artstore-orderflow/internal/config"
	"github.com/imrishuroy/artstore-orderflow/internal/handlers"
	"github.com/imrishuroy/artstore-orderflow/internal/idempotency"
	"github.com/imrishuroy/artstore-orderflow/internal/logger"
	"github.com/imrishuroy/artstore-orderflow/internal/memstore"
	"github.com/imrishuroy/artstore-orderflow/internal/metrics"
	"github.com/imrishuroy/artstore-orderflow/internal/notify"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
	"github.com/imrishuroy/artstore-orderflow/internal/stats"
)

type app struct {
	handlers handlers.HandlerConfig
	registry *prometheus.Registry
	server   *metrics.ServerMetrics
}

// awsClients loads the AWS clients once, only for backends that need them.
type awsClients struct {
	ctx     context.Context
	clients *aws.AWSClients
}

func (a *awsClients) get() (*aws.AWSClients, error) {
	if a.clients != nil {
		return a.clients, nil
	}
	c, err := aws.NewAWSClients(a.ctx)
	if err != nil {
		return nil, fmt.Errorf("init aws clients: %w", err)
	}
	a.clients = c
	return c, nil
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	lazy := &awsClients{ctx: ctx}
	deps := checkout.Deps{
		Composer: notify.Composer{Store: cfg.StoreName},
		Log:      log,
		CodeTTL:  cfg.CheckoutCodeTTL,
	}
	var (
		accountStore handlers.AccountResolver
		cartAccounts cart.AccountStore
		cartCatalog  cart.Catalog
		statsOrders  stats.Orders
	)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		db := memstore.New()
		if cfg.SeedFile != "" {
			f, err := os.Open(cfg.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("open seed: %w", err)
			}
			err = db.LoadSeed(f)
			f.Close()
			if err != nil {
				return nil, err
			}
		}
		accountStore, cartAccounts, cartCatalog, statsOrders = db.Accounts(), db.Accounts(), db.Catalog(), db.Orders()
		deps.Accounts, deps.Catalog, deps.Orders, deps.Writer, deps.Keys = db.Accounts(), db.Catalog(), db.Orders(), db.Orders(), db.Keys()
	case config.BackendDynamoDB:
		clients, err := lazy.get()
		if err != nil {
			return nil, err
		}
		accts := accounts.NewStore(clients.DynamoDB, cfg.AccountsTable)
		arts := catalog.NewStore(clients.DynamoDB, cfg.ArtworksTable)
		ords := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
		keys := idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
		accountStore, cartAccounts, cartCatalog, statsOrders = accts, accts, arts, ords
		deps.Accounts, deps.Catalog, deps.Orders, deps.Keys = accts, arts, ords, keys
		deps.Writer = orders.NewCheckoutWriter(clients.DynamoDB, ords, accts, keys)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.Notifier {
	case config.NotifierSendGrid:
		sg, err := notify.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, cfg.StoreName, log)
		if err != nil {
			return nil, err
		}
		deps.Notifier = sg
	case config.NotifierQueue:
		clients, err := lazy.get()
		if err != nil {
			return nil, err
		}
		deps.Notifier = notify.NewQueue(aws.NewPublisher(clients.SQS, cfg.NotificationsQueueURL))
	case config.NotifierLog:
		deps.Notifier = notify.NewLog(log)
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorders := metrics.Multi{metrics.NewPrometheus(reg)}
	if cfg.CloudWatchNamespace != "" {
		clients, err := lazy.get()
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, metrics.NewCloudWatch(clients.CloudWatch, cfg.CloudWatchNamespace, log))
	}
	deps.Metrics = recorders

	return &app{
		handlers: handlers.HandlerConfig{
			Accounts: accountStore,
			Cart:     cart.NewManager(cartAccounts, cartCatalog, log),
			Checkout: checkout.NewInitiator(deps),
			Verifier: checkout.NewVerifier(deps),
			Stats:    stats.NewAggregator(statsOrders, log),
			Log:      log,
		},
		registry: reg,
		server:   metrics.NewServerMetrics(reg, "api"),
	}, nil
}

func setupRouter(a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.server.Middleware())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(a.registry)))

	handlers.RegisterRoutes(r, a.handlers)

	return r
}

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "artstore-api", Env: cfg.AppEnv, Level: cfg.LogLevel})

	a, err := buildApp(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := setupRouter(a)

	// if RUN_LOCAL is true, run local HTTP server for development.
	if cfg.RunLocal {
		log.Info("running local server", "addr", cfg.HTTPAddr, "backend", cfg.StoreBackend)
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Error("failed to run local server", "error", err)
			os.Exit(1)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
