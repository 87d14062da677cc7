package memstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

func TestSaveCart_VersionGuard(t *testing.T) {
	db := New()
	db.PutAccount(accounts.Account{ID: "a1", Email: "a@example.com"})
	ctx := context.Background()
	s := db.Accounts()

	if err := s.SaveCart(ctx, "a1", []accounts.CartLine{{ArtworkID: "x"}}, 0); err != nil {
		t.Fatalf("SaveCart: %v", err)
	}
	if err := s.SaveCart(ctx, "a1", nil, 0); !errors.Is(err, accounts.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := s.SaveCart(ctx, "missing", nil, 0); !errors.Is(err, accounts.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for missing account, got %v", err)
	}
	acc, _ := s.Get(ctx, "a1")
	if acc.CartVersion != 1 || len(acc.Cart) != 1 {
		t.Fatalf("unexpected account: %+v", acc)
	}
	// returned copies must not alias stored state
	acc.Cart[0].ArtworkID = "mutated"
	again, _ := s.Get(ctx, "a1")
	if again.Cart[0].ArtworkID != "x" {
		t.Fatalf("stored cart was mutated through a returned copy")
	}
}

func TestCreatePending_Guards(t *testing.T) {
	db := New()
	db.PutAccount(accounts.Account{ID: "a1", Cart: []accounts.CartLine{{ArtworkID: "x"}}, CartVersion: 2})
	ctx := context.Background()
	o := orders.Order{OrderID: "o1", AccountID: "a1", Status: orders.StatusPendingVerification, CheckoutKey: "checkout#1"}

	if err := db.Orders().CreatePending(ctx, o, 1); !errors.Is(err, orders.ErrCartChanged) {
		t.Fatalf("expected ErrCartChanged, got %v", err)
	}
	if err := db.Orders().CreatePending(ctx, o, 2); err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	acc, _ := db.Accounts().Get(ctx, "a1")
	if len(acc.Cart) != 0 || acc.CartVersion != 3 {
		t.Fatalf("cart not cleared: %+v", acc)
	}
	rec, _ := db.Keys().Get(ctx, "checkout#1")
	if rec == nil || rec.OrderID != "o1" {
		t.Fatalf("checkout key not recorded: %+v", rec)
	}

	o.OrderID = "o2"
	if err := db.Orders().CreatePending(ctx, o, 3); !errors.Is(err, orders.ErrDuplicateCheckout) {
		t.Fatalf("expected ErrDuplicateCheckout, got %v", err)
	}
}

func TestUpdateStatusAndArchive(t *testing.T) {
	db := New()
	db.PutOrder(orders.Order{OrderID: "o1", Status: orders.StatusPendingVerification})
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := db.Orders()

	if ok, _ := s.MarkArchived(ctx, "o1", at); ok {
		t.Fatalf("pending order must not archive")
	}
	if err := s.UpdateStatus(ctx, "o1", orders.StatusPendingVerification, orders.StatusCompleted, at); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := s.UpdateStatus(ctx, "o1", orders.StatusPendingVerification, orders.StatusExpired, at); !errors.Is(err, orders.ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
	if ok, _ := s.MarkArchived(ctx, "o1", at); !ok {
		t.Fatalf("completed order should archive")
	}
	got, _ := s.Get(ctx, "o1")
	if got.Status != orders.StatusCompleted || !got.IsArchived || got.CompletedAt == nil {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestLoadSeed(t *testing.T) {
	db := New()
	seed := `{
		"accounts": [{"accountId": "u1", "email": "u1@example.com"}, {"accountId": "adm", "email": "adm@example.com", "role": "admin"}],
		"artworks": [{"id": "art-1", "title": "Dune", "price": 120.5, "downloadAsset": "https://cdn/dune.png"}]
	}`
	if err := db.LoadSeed(strings.NewReader(seed)); err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	ctx := context.Background()
	u, _ := db.Accounts().Get(ctx, "u1")
	if u == nil || u.Role != accounts.RoleCustomer {
		t.Fatalf("unexpected customer: %+v", u)
	}
	admins, _ := db.Accounts().ListByRole(ctx, accounts.RoleAdmin)
	if len(admins) != 1 || admins[0].ID != "adm" {
		t.Fatalf("unexpected admins: %+v", admins)
	}
	art, _ := db.Catalog().Get(ctx, "art-1")
	if art == nil || art.DownloadAsset != "https://cdn/dune.png" || art.Price.String() != "120.5" {
		t.Fatalf("unexpected artwork: %+v", art)
	}
}
