package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imrishuroy/artstore-orderflow/internal/apperr"
	"github.com/imrishuroy/artstore-orderflow/internal/logger"
	"github.com/imrishuroy/artstore-orderflow/internal/memstore"
	"github.com/imrishuroy/artstore-orderflow/internal/money"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

func line(id, title string, price int64) orders.Line {
	return orders.Line{ArtworkID: id, Title: title, PriceAtPurchase: money.FromInt(price)}
}

func order(id string, status orders.Status, date time.Time, lines ...orders.Line) orders.Order {
	var prices []money.Amount
	for _, l := range lines {
		prices = append(prices, l.PriceAtPurchase)
	}
	return orders.Order{OrderID: id, Status: status, OrderDate: date, Items: lines, TotalAmount: money.Sum(prices...)}
}

func seeded(t *testing.T) (*memstore.DB, *Aggregator) {
	t.Helper()
	db := memstore.New()
	jan := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	dec := time.Date(2024, 12, 31, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600)) // 2025-01-01 01:30 UTC

	db.PutOrder(order("o1", orders.StatusCompleted, jan, line("X", "Xanadu", 100), line("Y", "Yonder", 80)))
	db.PutOrder(order("o2", orders.StatusCompleted, feb, line("X", "Xanadu", 120)))
	db.PutOrder(order("o3", orders.StatusCompleted, dec, line("Z", "Zenith", 10)))
	db.PutOrder(order("pending", orders.StatusPendingVerification, jan, line("X", "Xanadu", 1000)))
	db.PutOrder(order("expired", orders.StatusExpired, jan, line("X", "Xanadu", 1000)))
	archived := order("old", orders.StatusCompleted, jan, line("Y", "Yonder", 5000))
	archived.IsArchived = true
	db.PutOrder(archived)

	return db, NewAggregator(db.Orders(), logger.Discard())
}

func TestSummary(t *testing.T) {
	_, a := seeded(t)
	s, err := a.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.TotalOrders != 3 || !s.TotalRevenue.Equal(money.FromInt(310)) {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if !s.AvgOrderValue.Equal(money.MustParse("103.33")) {
		t.Fatalf("avg = %s, want 103.33", s.AvgOrderValue)
	}
}

func TestSummary_NoOrders(t *testing.T) {
	a := NewAggregator(memstore.New().Orders(), logger.Discard())
	s, err := a.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.TotalOrders != 0 || !s.TotalRevenue.IsZero() || !s.AvgOrderValue.IsZero() {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestSalesOverTime_UTCBuckets(t *testing.T) {
	_, a := seeded(t)
	got, err := a.SalesOverTime(context.Background())
	if err != nil {
		t.Fatalf("SalesOverTime: %v", err)
	}
	want := []struct {
		period  string
		revenue int64
		orders  int
	}{
		{"1/2025", 190, 2},
		{"2/2025", 120, 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d buckets: %+v", len(got), got)
	}
	for i, w := range want {
		if got[i].Period != w.period || got[i].TotalOrders != w.orders || !got[i].TotalRevenue.Equal(money.FromInt(w.revenue)) {
			t.Fatalf("bucket %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestTopArtworks(t *testing.T) {
	_, a := seeded(t)
	got, err := a.TopArtworks(context.Background(), 0)
	if err != nil {
		t.Fatalf("TopArtworks: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("unexpected ranking: %+v", got)
	}
	first := got[0]
	if first.ArtworkID != "X" || first.TotalSold != 2 || !first.TotalRevenue.Equal(money.FromInt(220)) || first.Title != "Xanadu" {
		t.Fatalf("unexpected leader: %+v", first)
	}
	if got[1].ArtworkID != "Y" || got[2].ArtworkID != "Z" {
		t.Fatalf("unexpected order: %+v", got)
	}

	top1, _ := a.TopArtworks(context.Background(), 1)
	if len(top1) != 1 || top1[0].ArtworkID != "X" {
		t.Fatalf("limit not applied: %+v", top1)
	}
}

func TestTopArtworks_TiesByID(t *testing.T) {
	db := memstore.New()
	now := time.Now()
	db.PutOrder(order("o1", orders.StatusCompleted, now, line("b", "B", 50), line("a", "A", 50)))
	got, err := NewAggregator(db.Orders(), logger.Discard()).TopArtworks(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopArtworks: %v", err)
	}
	if got[0].ArtworkID != "a" || got[1].ArtworkID != "b" {
		t.Fatalf("ties must sort by id: %+v", got)
	}
}

func TestArchiveCompleted(t *testing.T) {
	db, a := seeded(t)
	ctx := context.Background()

	n, err := a.ArchiveCompleted(ctx)
	if err != nil {
		t.Fatalf("ArchiveCompleted: %v", err)
	}
	if n != 3 {
		t.Fatalf("archived %d, want 3", n)
	}
	s, _ := a.Summary(ctx)
	if s.TotalOrders != 0 {
		t.Fatalf("archived orders still counted: %+v", s)
	}
	o, _ := db.Orders().Get(ctx, "o1")
	if o.Status != orders.StatusCompleted || o.ArchivedAt == nil {
		t.Fatalf("archive must keep status and stamp archived_at: %+v", o)
	}
	p, _ := db.Orders().Get(ctx, "pending")
	if p.IsArchived {
		t.Fatalf("pending order must not be archived")
	}

	n, err = a.ArchiveCompleted(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second sweep = %d, %v", n, err)
	}
}

type failingOrders struct{ Orders }

func (failingOrders) ListCompleted(context.Context) ([]orders.Order, error) {
	return nil, errors.New("scan failed")
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	a := NewAggregator(failingOrders{}, logger.Discard())
	if _, err := a.Summary(context.Background()); !apperr.Is(err, apperr.Unavailable) {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}
