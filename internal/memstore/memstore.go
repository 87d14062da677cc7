// Package memstore keeps accounts, artworks, orders and checkout keys in process memory.
// It mirrors the conditional semantics of the DynamoDB stores and backs local runs and
// service tests.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
	"github.com/imrishuroy/artstore-orderflow/internal/catalog"
	"github.com/imrishuroy/artstore-orderflow/internal/idempotency"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

type DB struct {
	mu       sync.RWMutex
	accounts map[string]accounts.Account
	artworks map[string]catalog.Artwork
	orders   map[string]orders.Order
	keys     map[string]idempotency.IdempotencyRecord
	now      func() time.Time
}

func New() *DB {
	return &DB{
		accounts: make(map[string]accounts.Account),
		artworks: make(map[string]catalog.Artwork),
		orders:   make(map[string]orders.Order),
		keys:     make(map[string]idempotency.IdempotencyRecord),
		now:      time.Now,
	}
}

func (db *DB) PutAccount(a accounts.Account) {
	db.mu.Lock()
	db.accounts[a.ID] = cloneAccount(a)
	db.mu.Unlock()
}

func (db *DB) PutArtwork(a catalog.Artwork) {
	db.mu.Lock()
	db.artworks[a.ID] = a
	db.mu.Unlock()
}

func (db *DB) DeleteArtwork(id string) {
	db.mu.Lock()
	delete(db.artworks, id)
	db.mu.Unlock()
}

func (db *DB) PutOrder(o orders.Order) {
	db.mu.Lock()
	db.orders[o.OrderID] = cloneOrder(o)
	db.mu.Unlock()
}

// Seed is the JSON document accepted by LoadSeed.
type Seed struct {
	Accounts []struct {
		ID        string        `json:"accountId"`
		Email     string        `json:"email"`
		FirstName string        `json:"firstName"`
		Role      accounts.Role `json:"role"`
	} `json:"accounts"`
	Artworks []struct {
		catalog.Artwork
		DownloadAsset string `json:"downloadAsset"`
	} `json:"artworks"`
}

// LoadSeed reads accounts and artworks from r.
func (db *DB) LoadSeed(r io.Reader) error {
	var s Seed
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	for _, a := range s.Accounts {
		role := a.Role
		if role == "" {
			role = accounts.RoleCustomer
		}
		db.PutAccount(accounts.Account{ID: a.ID, Email: a.Email, FirstName: a.FirstName, Role: role})
	}
	for _, a := range s.Artworks {
		art := a.Artwork
		art.DownloadAsset = a.DownloadAsset
		db.PutArtwork(art)
	}
	return nil
}

func (db *DB) Accounts() *Accounts { return &Accounts{db: db} }
func (db *DB) Catalog() *Catalog   { return &Catalog{db: db} }
func (db *DB) Orders() *Orders     { return &Orders{db: db} }
func (db *DB) Keys() *Keys         { return &Keys{db: db} }

type Accounts struct{ db *DB }

func (s *Accounts) Get(ctx context.Context, accountID string) (*accounts.Account, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	a, ok := s.db.accounts[accountID]
	if !ok {
		return nil, nil
	}
	a = cloneAccount(a)
	return &a, nil
}

func (s *Accounts) ListByRole(ctx context.Context, role accounts.Role) ([]accounts.Account, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []accounts.Account
	for _, a := range s.db.accounts {
		if a.Role == role {
			out = append(out, cloneAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Accounts) SaveCart(ctx context.Context, accountID string, lines []accounts.CartLine, expectedVersion int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.accounts[accountID]
	if !ok || a.CartVersion != expectedVersion {
		return accounts.ErrVersionConflict
	}
	a.Cart = append([]accounts.CartLine(nil), lines...)
	a.CartVersion++
	s.db.accounts[accountID] = a
	return nil
}

type Catalog struct{ db *DB }

func (s *Catalog) Get(ctx context.Context, artworkID string) (*catalog.Artwork, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	a, ok := s.db.artworks[artworkID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// BatchGet returns the artworks that exist, in the order of ids, without duplicates.
func (s *Catalog) BatchGet(ctx context.Context, ids []string) ([]catalog.Artwork, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	seen := make(map[string]bool, len(ids))
	out := make([]catalog.Artwork, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if a, ok := s.db.artworks[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type Orders struct{ db *DB }

func (s *Orders) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	o, ok := s.db.orders[orderID]
	if !ok {
		return nil, nil
	}
	o = cloneOrder(o)
	return &o, nil
}

// CreatePending stores order, its checkout key and clears the cart in one critical section.
func (s *Orders) CreatePending(ctx context.Context, order orders.Order, cartVersion int64) error {
	if order.CheckoutKey == "" {
		return fmt.Errorf("create pending order: checkout key is empty")
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.orders[order.OrderID]; ok {
		return fmt.Errorf("order %s already exists", order.OrderID)
	}
	if _, ok := s.db.keys[order.CheckoutKey]; ok {
		return orders.ErrDuplicateCheckout
	}
	a, ok := s.db.accounts[order.AccountID]
	if !ok || a.CartVersion != cartVersion {
		return orders.ErrCartChanged
	}
	now := s.db.now().UTC()
	order.UpdatedAt = now
	s.db.orders[order.OrderID] = cloneOrder(order)
	s.db.keys[order.CheckoutKey] = idempotency.IdempotencyRecord{
		IdempotencyKey: order.CheckoutKey,
		Status:         idempotency.StatusDone,
		OrderID:        order.OrderID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	a.Cart = nil
	a.CartVersion++
	s.db.accounts[a.ID] = a
	return nil
}

func (s *Orders) UpdateStatus(ctx context.Context, orderID string, expected, newStatus orders.Status, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[orderID]
	if !ok || o.Status != expected {
		return orders.ErrStatusMismatch
	}
	o.Status = newStatus
	if newStatus == orders.StatusCompleted {
		t := at.UTC()
		o.CompletedAt = &t
	}
	o.UpdatedAt = s.db.now().UTC()
	s.db.orders[orderID] = o
	return nil
}

func (s *Orders) IncrementAttempts(ctx context.Context, orderID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[orderID]
	if !ok || o.Status != orders.StatusPendingVerification {
		return orders.ErrStatusMismatch
	}
	o.FailedAttempts++
	s.db.orders[orderID] = o
	return nil
}

func (s *Orders) ListCompleted(ctx context.Context) ([]orders.Order, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []orders.Order
	for _, o := range s.db.orders {
		if o.Status == orders.StatusCompleted {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (s *Orders) MarkArchived(ctx context.Context, orderID string, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[orderID]
	if !ok || o.Status != orders.StatusCompleted || o.IsArchived {
		return false, nil
	}
	t := at.UTC()
	o.IsArchived = true
	o.ArchivedAt = &t
	s.db.orders[orderID] = o
	return true, nil
}

type Keys struct{ db *DB }

func (s *Keys) Get(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.keys[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func cloneAccount(a accounts.Account) accounts.Account {
	a.Cart = append([]accounts.CartLine(nil), a.Cart...)
	return a
}

func cloneOrder(o orders.Order) orders.Order {
	o.Items = append([]orders.Line(nil), o.Items...)
	return o
}
