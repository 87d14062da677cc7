package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/artstore-orderflow/internal/config"
	"github.com/imrishuroy/artstore-orderflow/internal/logger"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	seed := filepath.Join(t.TempDir(), "seed.json")
	err := os.WriteFile(seed, []byte(`{"accounts":[{"accountId":"adm","email":"adm@example.com","role":"admin"}]}`), 0o600)
	if err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return config.Config{
		StoreBackend: config.BackendMemory,
		SeedFile:     seed,
		Notifier:     config.NotifierLog,
		StoreName:    "ArtStore",
	}
}

func TestSetupRouter_MemoryBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := buildApp(context.Background(), memoryConfig(t), logger.Discard())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	r := setupRouter(a)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/statistics/summary", nil)
	req.Header.Set("X-Account-Id", "adm")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("seeded admin summary: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "artstore_api_http_requests_total") {
		t.Fatalf("metrics: %d", w.Code)
	}
}

func TestBuildApp_RejectsUnknownSettings(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Notifier = "pigeon"
	if _, err := buildApp(context.Background(), cfg, logger.Discard()); err == nil {
		t.Fatalf("expected error for unknown notifier")
	}
	cfg = memoryConfig(t)
	cfg.StoreBackend = "postgres"
	if _, err := buildApp(context.Background(), cfg, logger.Discard()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	cfg = memoryConfig(t)
	cfg.Notifier = config.NotifierSendGrid
	if _, err := buildApp(context.Background(), cfg, logger.Discard()); err == nil {
		t.Fatalf("expected error for sendgrid without api key")
	}
}
