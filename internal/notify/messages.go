package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/artstore-orderflow/internal/money"
	"github.com/imrishuroy/artstore-orderflow/internal/orders"
)

var htmlTemplates = template.Must(template.New("").Parse(`
{{define "code"}}<p>Hi {{.Name}},</p>
<p>Your verification code for order <b>{{.OrderID}}</b> is:</p>
<h2>{{.Code}}</h2>
<p>Order total: {{.Total}}. The code expires at {{.ExpiresAt}}.</p>
<p>{{.Store}}</p>{{end}}
{{define "fulfillment"}}<p>Hi {{.Name}},</p>
<p>Thank you for your purchase. Your downloads for order <b>{{.OrderID}}</b>:</p>
<ul>{{range .Lines}}<li><a href="{{.DownloadAsset}}">{{.Title}}</a> ({{.Price}})</li>{{end}}</ul>
<p>Total: {{.Total}}</p>
<p>{{.Store}}</p>{{end}}
{{define "sale"}}<p>New sale on {{.Store}}.</p>
<p>Order <b>{{.OrderID}}</b> by {{.Buyer}}, total {{.Total}}.</p>
<ul>{{range .Lines}}<li>{{.Title}} ({{.Price}})</li>{{end}}</ul>{{end}}
`))

// FormatAmount renders a price for humans, e.g. "$150.00".
func FormatAmount(a money.Amount) string {
	return "$" + a.StringFixed(2)
}

// Composer renders the emails sent by the order flow.
type Composer struct {
	Store string
}

type lineView struct {
	Title         string
	Price         string
	DownloadAsset string
}

type orderView struct {
	Store     string
	Name      string
	Buyer     string
	OrderID   string
	Code      string
	Total     string
	ExpiresAt string
	Lines     []lineView
}

func (c Composer) view(o *orders.Order) orderView {
	v := orderView{Store: c.Store, OrderID: o.OrderID, Total: FormatAmount(o.TotalAmount)}
	for _, l := range o.Items {
		v.Lines = append(v.Lines, lineView{Title: l.Title, Price: FormatAmount(l.PriceAtPurchase), DownloadAsset: l.DownloadAsset})
	}
	return v
}

// CheckoutCode carries the verification code of a freshly created order.
func (c Composer) CheckoutCode(to, name string, o *orders.Order) (Message, error) {
	v := c.view(o)
	v.Name = name
	v.Code = o.VerificationCode
	v.ExpiresAt = o.CodeExpiresAt.UTC().Format(time.RFC1123)

	text := fmt.Sprintf("Hi %s,\n\nYour verification code for order %s is %s.\nOrder total: %s. The code expires at %s.\n\n%s\n",
		name, o.OrderID, o.VerificationCode, v.Total, v.ExpiresAt, c.Store)
	return c.build(KindCheckoutCode, "code", to, name, fmt.Sprintf("%s: your verification code", c.Store), text, o.OrderID, v)
}

// Fulfillment lists one download reference per purchased artwork.
func (c Composer) Fulfillment(to, name string, o *orders.Order) (Message, error) {
	v := c.view(o)
	v.Name = name

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your purchase. Your downloads for order %s:\n", name, o.OrderID)
	for _, l := range v.Lines {
		fmt.Fprintf(&b, "- %s (%s): %s\n", l.Title, l.Price, l.DownloadAsset)
	}
	fmt.Fprintf(&b, "\nTotal: %s\n\n%s\n", v.Total, c.Store)
	return c.build(KindFulfillment, "fulfillment", to, name, fmt.Sprintf("%s: your order is confirmed", c.Store), b.String(), o.OrderID, v)
}

// AdminSale summarizes a completed order for an administrator.
func (c Composer) AdminSale(to, buyer string, o *orders.Order) (Message, error) {
	v := c.view(o)
	v.Buyer = buyer

	var b strings.Builder
	fmt.Fprintf(&b, "New sale on %s.\n\nOrder %s by %s, total %s.\n", c.Store, o.OrderID, buyer, v.Total)
	for _, l := range v.Lines {
		fmt.Fprintf(&b, "- %s (%s)\n", l.Title, l.Price)
	}
	return c.build(KindAdminSale, "sale", to, "", fmt.Sprintf("%s: new sale %s", c.Store, o.OrderID), b.String(), o.OrderID, v)
}

func (c Composer) build(kind Kind, tmpl, to, name, subject, text, orderID string, v orderView) (Message, error) {
	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, tmpl, v); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tmpl, err)
	}
	return Message{
		ID:      uuid.NewString(),
		Kind:    kind,
		OrderID: orderID,
		To:      to,
		ToName:  name,
		Subject: subject,
		Text:    text,
		HTML:    html.String(),
	}, nil
}
