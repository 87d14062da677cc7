package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/imrishuroy/artstore-orderflow/internal/logger"
	"github.com/imrishuroy/artstore-orderflow/internal/money"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

func sampleOrder() *orders.Order {
	return &orders.Order{
		OrderID: "order-1",
		Items: []orders.Line{
			{ArtworkID: "a", Title: "Sunrise <b>", PriceAtPurchase: money.FromInt(100), DownloadAsset: "https://cdn/a.png"},
			{ArtworkID: "b", Title: "Dusk", PriceAtPurchase: money.MustParse("50.5"), DownloadAsset: "https://cdn/b.png"},
		},
		TotalAmount:      money.MustParse("150.5"),
		VerificationCode: "K7Q2MX9P",
		CodeExpiresAt:    time.Date(2025, 1, 1, 10, 10, 0, 0, time.UTC),
	}
}

func TestComposer_CheckoutCode(t *testing.T) {
	msg, err := Composer{Store: "ArtStore"}.CheckoutCode("ann@example.com", "Ann", sampleOrder())
	if err != nil {
		t.Fatalf("CheckoutCode: %v", err)
	}
	if msg.Kind != KindCheckoutCode || msg.To != "ann@example.com" || msg.ID == "" {
		t.Fatalf("unexpected message header: %+v", msg)
	}
	for _, want := range []string{"K7Q2MX9P", "$150.50"} {
		if !strings.Contains(msg.Text, want) || !strings.Contains(msg.HTML, want) {
			t.Fatalf("message should contain %q:\n%s\n%s", want, msg.Text, msg.HTML)
		}
	}
}

func TestComposer_FulfillmentListsEveryDownload(t *testing.T) {
	msg, err := Composer{Store: "ArtStore"}.Fulfillment("ann@example.com", "Ann", sampleOrder())
	if err != nil {
		t.Fatalf("Fulfillment: %v", err)
	}
	for _, url := range []string{"https://cdn/a.png", "https://cdn/b.png"} {
		if strings.Count(msg.Text, url) != 1 {
			t.Fatalf("expected one reference to %s in:\n%s", url, msg.Text)
		}
	}
	if strings.Contains(msg.HTML, "Sunrise <b>") {
		t.Fatalf("html body must escape titles: %s", msg.HTML)
	}
}

func TestComposer_AdminSale(t *testing.T) {
	msg, err := Composer{Store: "ArtStore"}.AdminSale("admin@example.com", "ann@example.com", sampleOrder())
	if err != nil {
		t.Fatalf("AdminSale: %v", err)
	}
	if msg.Kind != KindAdminSale || !strings.Contains(msg.Text, "ann@example.com") || !strings.Contains(msg.Subject, "order-1") {
		t.Fatalf("unexpected admin message: %+v", msg)
	}
	if strings.Contains(msg.Text, "https://cdn/a.png") {
		t.Fatalf("admin summary must not carry download links")
	}
}

type fakePublisher struct {
	body  string
	attrs map[string]string
	err   error
}

func (p *fakePublisher) SendMessage(ctx context.Context, body string, attrs map[string]string) error {
	p.body, p.attrs = body, attrs
	return p.err
}

func TestQueue_RoundTrip(t *testing.T) {
	pub := &fakePublisher{}
	q := NewQueue(pub)
	err := q.Notify(context.Background(), Message{Kind: KindFulfillment, OrderID: "o1", To: "a@example.com", Subject: "s", Text: "t"})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pub.attrs["kind"] != string(KindFulfillment) || pub.attrs["order_id"] != "o1" {
		t.Fatalf("unexpected attributes: %v", pub.attrs)
	}
	msg, err := Decode(pub.body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.ID == "" || msg.To != "a@example.com" || msg.Text != "t" {
		t.Fatalf("unexpected decoded message: %+v", msg)
	}
}

func TestQueue_PublishError(t *testing.T) {
	q := NewQueue(&fakePublisher{err: errors.New("sqs down")})
	if err := q.Notify(context.Background(), Message{To: "a@example.com"}); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, body := range []string{"not json", `{"id":"x"}`, `{"to":"a@example.com"}`} {
		if _, err := Decode(body); err == nil {
			t.Fatalf("Decode(%q): expected error", body)
		}
	}
}

type fakeSender struct {
	status int
	err    error
	got    *mail.SGMailV3
}

func (f *fakeSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.got = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "body"}, nil
}

func TestSendGrid_Notify(t *testing.T) {
	tests := []struct {
		name    string
		sender  *fakeSender
		msg     Message
		wantErr bool
	}{
		{name: "accepted", sender: &fakeSender{status: 202}, msg: Message{To: "a@example.com", Subject: "s", Text: "t"}},
		{name: "rejected", sender: &fakeSender{status: 400}, msg: Message{To: "a@example.com"}, wantErr: true},
		{name: "transport error", sender: &fakeSender{err: errors.New("dial")}, msg: Message{To: "a@example.com"}, wantErr: true},
		{name: "no recipient", sender: &fakeSender{status: 202}, msg: Message{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SendGrid{client: tt.sender, from: "shop@example.com", fromName: "ArtStore", log: logger.Discard()}
			err := s.Notify(context.Background(), tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Notify err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (tt.sender.got == nil || tt.sender.got.Subject != "s") {
				t.Fatalf("email not built: %+v", tt.sender.got)
			}
		})
	}
}

func TestNewSendGrid_RequiresKeyAndSender(t *testing.T) {
	if _, err := NewSendGrid("", "a@example.com", "x", logger.Discard()); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := NewSendGrid("key", "", "x", logger.Discard()); err == nil {
		t.Fatalf("expected error for empty sender")
	}
}
