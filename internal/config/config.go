package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Notifier backends.
const (
	NotifierSendGrid = "sendgrid"
	NotifierQueue    = "queue"
	NotifierLog      = "log"
)

type Config struct {
	AppEnv   string
	LogLevel string

	RunLocal bool
	HTTPAddr string

	StoreBackend     string
	SeedFile         string
	AccountsTable    string
	ArtworksTable    string
	OrdersTable      string
	IdempotencyTable string
	IdempotencyTTL   time.Duration
	CheckoutCodeTTL  time.Duration

	Notifier              string
	NotificationsQueueURL string
	SendGridAPIKey        string
	MailFrom              string
	StoreName             string

	CloudWatchNamespace string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RunLocal: getEnvBool("RUN_LOCAL", false),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendDynamoDB)),
		SeedFile:         os.Getenv("SEED_FILE"),
		AccountsTable:    getEnv("ACCOUNTS_TABLE", "accounts"),
		ArtworksTable:    getEnv("ARTWORKS_TABLE", "artworks"),
		OrdersTable:      getEnv("ORDERS_TABLE", "orders"),
		IdempotencyTable: getEnv("IDEMPOTENCY_TABLE", "idempotency"),
		IdempotencyTTL:   getEnvDuration("IDEMPOTENCY_TTL", 48*time.Hour),
		CheckoutCodeTTL:  getEnvDuration("CHECKOUT_CODE_TTL", 10*time.Minute),

		Notifier:              strings.ToLower(getEnv("NOTIFIER", NotifierLog)),
		NotificationsQueueURL: os.Getenv("NOTIFICATIONS_QUEUE_URL"),
		SendGridAPIKey:        os.Getenv("SENDGRID_API_KEY"),
		MailFrom:              getEnv("MAIL_FROM", "no-reply@artstore.example"),
		StoreName:             getEnv("STORE_NAME", "ArtStore"),

		CloudWatchNamespace: os.Getenv("CLOUDWATCH_NAMESPACE"),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
