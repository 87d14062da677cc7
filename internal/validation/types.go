package validation

// CartItemRequest is the payload for POST and DELETE /api/cart.
type CartItemRequest struct {
	ArtworkID string `json:"artworkId" validate:"required,uuid"`
}

// VerifyRequest is the payload for POST /api/checkout/verify.
type VerifyRequest struct {
	OrderID          string `json:"orderId" validate:"required,uuid"`
	VerificationCode string `json:"verificationCode" validate:"required,max=32"`
}

// ResendRequest is the payload for POST /api/checkout/resend.
type ResendRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

// TopProductsQuery is the query of GET /api/admin/statistics/top-products.
type TopProductsQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}
