// Package cart manages the per-account list of artworks a customer intends to buy.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
	"github.com/imrishuroy/artstore-orderflow/internal/apperr"
	"github.com/imrishuroy/artstore-orderflow/internal/catalog"
	"github.com/imrishuroy/artstore-orderflow/internal/money"
)

// maxWriteAttempts bounds the compare-and-set loop on cart_version.
const maxWriteAttempts = 5

type AccountStore interface {
	Get(ctx context.Context, accountID string) (*accounts.Account, error)
	SaveCart(ctx context.Context, accountID string, lines []accounts.CartLine, expectedVersion int64) error
}

type Catalog interface {
	Get(ctx context.Context, artworkID string) (*catalog.Artwork, error)
	BatchGet(ctx context.Context, ids []string) ([]catalog.Artwork, error)
}

// Entry is a cart line joined with the artwork it refers to.
type Entry struct {
	ArtworkID    string             `json:"artworkId"`
	Title        string             `json:"title"`
	Price        money.Amount       `json:"price"`
	PreviewImage string             `json:"previewImage,omitempty"`
	Dimensions   catalog.Dimensions `json:"dimensions"`
	AddedAt      time.Time          `json:"addedAt"`
}

type Manager struct {
	accounts AccountStore
	catalog  Catalog
	log      *slog.Logger
	nowFunc  func() time.Time
}

func NewManager(accts AccountStore, cat Catalog, log *slog.Logger) *Manager {
	return &Manager{accounts: accts, catalog: cat, log: log, nowFunc: time.Now}
}

// List returns the cart in insertion order. Lines whose artwork no longer exists are
// dropped from the view but left in storage.
func (m *Manager) List(ctx context.Context, accountID string) ([]Entry, error) {
	acc, err := m.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "could not load cart", err)
	}
	if acc == nil || len(acc.Cart) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, 0, len(acc.Cart))
	for _, l := range acc.Cart {
		ids = append(ids, l.ArtworkID)
	}
	arts, err := m.catalog.BatchGet(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "could not load cart", err)
	}
	byID := make(map[string]catalog.Artwork, len(arts))
	for _, a := range arts {
		byID[a.ID] = a
	}

	out := make([]Entry, 0, len(acc.Cart))
	for _, l := range acc.Cart {
		a, ok := byID[l.ArtworkID]
		if !ok {
			m.log.Debug("cart line without artwork", "account_id", accountID, "artwork_id", l.ArtworkID)
			continue
		}
		out = append(out, Entry{
			ArtworkID:    a.ID,
			Title:        a.Title,
			Price:        a.Price,
			PreviewImage: a.PreviewImage,
			Dimensions:   a.Dimensions,
			AddedAt:      l.AddedAt,
		})
	}
	return out, nil
}

// Add puts artworkID in the cart. added is false when it was already there.
func (m *Manager) Add(ctx context.Context, accountID, artworkID string) (added bool, err error) {
	if _, err := uuid.Parse(artworkID); err != nil {
		return false, apperr.New(apperr.NotFound, "artwork not found")
	}
	art, err := m.catalog.Get(ctx, artworkID)
	if err != nil {
		return false, apperr.Wrap(apperr.Unavailable, "could not add to cart", err)
	}
	if art == nil {
		return false, apperr.New(apperr.NotFound, "artwork not found")
	}

	err = m.update(ctx, accountID, func(acc *accounts.Account) ([]accounts.CartLine, bool) {
		added = false
		if acc.HasArtwork(artworkID) {
			return nil, false
		}
		lines := append(append([]accounts.CartLine(nil), acc.Cart...), accounts.CartLine{
			ArtworkID: artworkID,
			AddedAt:   m.nowFunc().UTC(),
		})
		added = true
		return lines, true
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// Remove drops artworkID from the cart. Removing an absent line is not an error.
func (m *Manager) Remove(ctx context.Context, accountID, artworkID string) error {
	return m.update(ctx, accountID, func(acc *accounts.Account) ([]accounts.CartLine, bool) {
		if !acc.HasArtwork(artworkID) {
			return nil, false
		}
		lines := make([]accounts.CartLine, 0, len(acc.Cart)-1)
		for _, l := range acc.Cart {
			if l.ArtworkID != artworkID {
				lines = append(lines, l)
			}
		}
		return lines, true
	})
}

// update re-reads the account and retries mutate while another writer wins the version race.
// mutate returns write=false when the cart is already in the wanted state.
func (m *Manager) update(ctx context.Context, accountID string, mutate func(*accounts.Account) ([]accounts.CartLine, bool)) error {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		acc, err := m.accounts.Get(ctx, accountID)
		if err != nil {
			return apperr.Wrap(apperr.Unavailable, "could not update cart", err)
		}
		if acc == nil {
			return apperr.New(apperr.Unauthenticated, "account not found")
		}
		lines, write := mutate(acc)
		if !write {
			return nil
		}
		err = m.accounts.SaveCart(ctx, accountID, lines, acc.CartVersion)
		if err == nil {
			return nil
		}
		if !errors.Is(err, accounts.ErrVersionConflict) {
			return apperr.Wrap(apperr.Unavailable, "could not update cart", err)
		}
		m.log.Debug("cart version conflict, retrying", "account_id", accountID, "attempt", attempt)
	}
	return apperr.New(apperr.Unavailable, "cart is busy, please retry")
}
