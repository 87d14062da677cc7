// Package stats aggregates revenue over completed, unarchived orders.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/artstore-orderflow/internal/apperr"
	"github.com/imrishuroy/artstore-orderflow/internal/money"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

// DefaultTopLimit is the number of artworks TopArtworks returns when no limit is given.
const DefaultTopLimit = 10

const archiveConcurrency = 8

type Orders interface {
	ListCompleted(ctx context.Context) ([]orders.Order, error)
	MarkArchived(ctx context.Context, orderID string, at time.Time) (bool, error)
}

type Summary struct {
	TotalRevenue  money.Amount `json:"totalRevenue"`
	TotalOrders   int          `json:"totalOrders"`
	AvgOrderValue money.Amount `json:"avgOrderValue"`
}

type PeriodSales struct {
	Period       string       `json:"period"`
	Year         int          `json:"year"`
	Month        int          `json:"month"`
	TotalRevenue money.Amount `json:"totalRevenue"`
	TotalOrders  int          `json:"totalOrders"`
}

type ArtworkSales struct {
	ArtworkID    string       `json:"artworkId"`
	Title        string       `json:"title"`
	TotalSold    int          `json:"totalSold"`
	TotalRevenue money.Amount `json:"totalRevenue"`
}

type Aggregator struct {
	orders  Orders
	log     *slog.Logger
	nowFunc func() time.Time
}

func NewAggregator(o Orders, log *slog.Logger) *Aggregator {
	return &Aggregator{orders: o, log: log, nowFunc: time.Now}
}

func (a *Aggregator) active(ctx context.Context) ([]orders.Order, error) {
	all, err := a.orders.ListCompleted(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "could not load orders", err)
	}
	out := all[:0]
	for _, o := range all {
		if o.CountsForStatistics() {
			out = append(out, o)
		}
	}
	return out, nil
}

// Summary totals revenue and order count. The average is rounded to cents.
func (a *Aggregator) Summary(ctx context.Context) (Summary, error) {
	list, err := a.active(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{TotalRevenue: money.Zero, AvgOrderValue: money.Zero}
	for _, o := range list {
		s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
	}
	s.TotalOrders = len(list)
	if s.TotalOrders > 0 {
		s.AvgOrderValue = s.TotalRevenue.DivRound(int64(s.TotalOrders), 2)
	}
	return s, nil
}

// SalesOverTime buckets orders by UTC calendar month of order_date, oldest first.
func (a *Aggregator) SalesOverTime(ctx context.Context) ([]PeriodSales, error) {
	list, err := a.active(ctx)
	if err != nil {
		return nil, err
	}
	type ym struct{ y, m int }
	buckets := map[ym]*PeriodSales{}
	for _, o := range list {
		d := o.OrderDate.UTC()
		k := ym{d.Year(), int(d.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &PeriodSales{
				Period:       fmt.Sprintf("%d/%d", k.m, k.y),
				Year:         k.y,
				Month:        k.m,
				TotalRevenue: money.Zero,
			}
			buckets[k] = b
		}
		b.TotalRevenue = b.TotalRevenue.Add(o.TotalAmount)
		b.TotalOrders++
	}

	out := make([]PeriodSales, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

// TopArtworks ranks artworks by revenue, highest first, ties by artwork id.
// limit <= 0 means DefaultTopLimit.
func (a *Aggregator) TopArtworks(ctx context.Context, limit int) ([]ArtworkSales, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	list, err := a.active(ctx)
	if err != nil {
		return nil, err
	}
	byID := map[string]*ArtworkSales{}
	for _, o := range list {
		for _, l := range o.Items {
			s, ok := byID[l.ArtworkID]
			if !ok {
				s = &ArtworkSales{ArtworkID: l.ArtworkID, TotalRevenue: money.Zero}
				byID[l.ArtworkID] = s
			}
			if l.Title != "" {
				s.Title = l.Title
			}
			s.TotalSold++
			s.TotalRevenue = s.TotalRevenue.Add(l.PriceAtPurchase)
		}
	}

	out := make([]ArtworkSales, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalRevenue.Cmp(out[j].TotalRevenue.Decimal); c != 0 {
			return c > 0
		}
		return out[i].ArtworkID < out[j].ArtworkID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ArchiveCompleted hides every completed order from the statistics and reports how many
// orders it flagged. Order status is left alone.
func (a *Aggregator) ArchiveCompleted(ctx context.Context) (int, error) {
	list, err := a.active(ctx)
	if err != nil {
		return 0, err
	}
	at := a.nowFunc().UTC()

	var archived atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(archiveConcurrency)
	for _, o := range list {
		g.Go(func() error {
			ok, err := a.orders.MarkArchived(gctx, o.OrderID, at)
			if err != nil {
				return fmt.Errorf("archive %s: %w", o.OrderID, err)
			}
			if ok {
				archived.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	n := int(archived.Load())
	if err != nil {
		a.log.ErrorContext(ctx, "archive sweep stopped", "archived", n, "error", err)
		return n, apperr.Wrap(apperr.Unavailable, "could not archive orders", err)
	}
	a.log.InfoContext(ctx, "archived completed orders", "archived", n)
	return n, nil
}
