package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

// CheckoutKey derives the idempotency key of a checkout from the cart snapshot it was built
// from. The cart version makes a later cart with the same artworks a different checkout.
func CheckoutKey(accountID string, cartVersion int64, artworkIDs []string) string {
	ids := slices.Clone(artworkIDs)
	slices.Sort(ids)

	h := sha256.New()
	h.Write([]byte(accountID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(cartVersion, 10)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(ids, ",")))
	return "checkout#" + hex.EncodeToString(h.Sum(nil))
}

// NotificationKey is the dedupe key of one queued notification delivery.
func NotificationKey(notificationID string) string {
	return "notification#" + notificationID
}
