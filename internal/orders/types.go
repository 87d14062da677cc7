package orders

import (
	"time"

	"github.com/imrishuroy/artstore-orderflow/internal/money"
)

type Status string

// Order statuses. Both completed and expired are terminal.
const (
	StatusPendingVerification Status = "pending_verification"
	StatusCompleted           Status = "completed"
	StatusExpired             Status = "expired"
)

// Line is a frozen snapshot of one purchased artwork.
type Line struct {
	ArtworkID       string       `json:"artworkId" dynamodbav:"artwork_id"`
	PriceAtPurchase money.Amount `json:"priceAtPurchase" dynamodbav:"price_at_purchase"`
	Title           string       `json:"title" dynamodbav:"title"`
	DownloadAsset   string       `json:"-" dynamodbav:"download_asset"`
}

// Order represents the item stored in the Orders DynamoDB table.
// Items, TotalAmount, VerificationCode and CodeExpiresAt never change after creation.
type Order struct {
	OrderID          string       `json:"orderId" dynamodbav:"order_id"` // PK
	AccountID        string       `json:"accountId" dynamodbav:"account_id"`
	Items            []Line       `json:"items" dynamodbav:"items"`
	TotalAmount      money.Amount `json:"totalAmount" dynamodbav:"total_amount"`
	OrderDate        time.Time    `json:"orderDate" dynamodbav:"order_date"`
	Status           Status       `json:"status" dynamodbav:"status"`
	VerificationCode string       `json:"-" dynamodbav:"verification_code"`
	CodeExpiresAt    time.Time    `json:"codeExpiresAt" dynamodbav:"code_expires_at"`
	CompletedAt      *time.Time   `json:"completedAt,omitempty" dynamodbav:"completed_at,omitempty"`
	IsArchived       bool         `json:"isArchived,omitempty" dynamodbav:"is_archived,omitempty"`
	ArchivedAt       *time.Time   `json:"archivedAt,omitempty" dynamodbav:"archived_at,omitempty"`
	CheckoutKey      string       `json:"-" dynamodbav:"checkout_key,omitempty"`
	FailedAttempts   int          `json:"-" dynamodbav:"failed_attempts,omitempty"`
	UpdatedAt        time.Time    `json:"-" dynamodbav:"updated_at"`
}

func (o *Order) IsPending() bool { return o.Status == StatusPendingVerification }

// CodeExpired reports whether now is past the code deadline.
func (o *Order) CodeExpired(now time.Time) bool { return now.After(o.CodeExpiresAt) }

// CountsForStatistics is true for completed orders not yet archived.
func (o *Order) CountsForStatistics() bool {
	return o.Status == StatusCompleted && !o.IsArchived
}

// ArtworkIDs lists the artworks of the order in line order.
func (o *Order) ArtworkIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, l := range o.Items {
		ids = append(ids, l.ArtworkID)
	}
	return ids
}
