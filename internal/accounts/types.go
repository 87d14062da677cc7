package accounts

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// CurrentSchemaVersion is the account layout written by this service.
const CurrentSchemaVersion = 1

// CartLine is one artwork an account intends to buy.
type CartLine struct {
	ArtworkID string    `json:"artworkId"`
	AddedAt   time.Time `json:"addedAt"`
}

// Account is a registered user together with its cart.
// CartVersion increases by one on every cart write and guards conditional updates.
type Account struct {
	ID          string
	Email       string
	FirstName   string
	Role        Role
	Cart        []CartLine
	CartVersion int64
}

func (a *Account) IsAdmin() bool { return a != nil && a.Role == RoleAdmin }

// HasArtwork reports whether the cart already holds artworkID.
func (a *Account) HasArtwork(artworkID string) bool {
	for _, l := range a.Cart {
		if l.ArtworkID == artworkID {
			return true
		}
	}
	return false
}

// DisplayName is the greeting used in notifications.
func (a *Account) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	return a.Email
}

type cartLineRecord struct {
	ArtworkID  string    `dynamodbav:"artwork_id,omitempty"`
	PaintingID string    `dynamodbav:"painting_id,omitempty"` // legacy name
	AddedAt    time.Time `dynamodbav:"added_at"`
}

// record is the shape persisted in the accounts DynamoDB table.
type record struct {
	AccountID     string           `dynamodbav:"account_id"` // PK
	Email         string           `dynamodbav:"email"`
	FirstName     string           `dynamodbav:"first_name,omitempty"`
	Role          string           `dynamodbav:"role,omitempty"`
	Cart          []cartLineRecord `dynamodbav:"cart"`
	CartVersion   int64            `dynamodbav:"cart_version"`
	SchemaVersion int              `dynamodbav:"schema_version"`
	UpdatedAt     time.Time        `dynamodbav:"updated_at,omitempty"`
}

// toAccount migrates legacy layouts: missing role means customer, cart lines written under
// painting_id are renamed, and duplicate lines collapse to the first occurrence.
func (r record) toAccount() Account {
	role := Role(r.Role)
	if role != RoleAdmin {
		role = RoleCustomer
	}
	lines := make([]CartLine, 0, len(r.Cart))
	seen := make(map[string]struct{}, len(r.Cart))
	for _, l := range r.Cart {
		id := l.ArtworkID
		if id == "" {
			id = l.PaintingID
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		lines = append(lines, CartLine{ArtworkID: id, AddedAt: l.AddedAt})
	}
	return Account{
		ID:          r.AccountID,
		Email:       r.Email,
		FirstName:   r.FirstName,
		Role:        role,
		Cart:        lines,
		CartVersion: r.CartVersion,
	}
}

func cartRecords(lines []CartLine) []cartLineRecord {
	out := make([]cartLineRecord, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineRecord{ArtworkID: l.ArtworkID, AddedAt: l.AddedAt.UTC()})
	}
	return out
}
