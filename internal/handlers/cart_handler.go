package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/artstore-orderflow/internal/validation"
)

func (h *handler) listCart(c *gin.Context) {
	entries, err := h.cfg.Cart.List(c.Request.Context(), currentAccount(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": entries})
}

func (h *handler) addToCart(c *gin.Context) {
	var req validation.CartItemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	added, err := h.cfg.Cart.Add(c.Request.Context(), currentAccount(c).ID, req.ArtworkID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	msg := "added to cart"
	if !added {
		msg = "already in cart"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "added": added})
}

func (h *handler) removeFromCart(c *gin.Context) {
	var req validation.CartItemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	if err := h.cfg.Cart.Remove(c.Request.Context(), currentAccount(c).ID, req.ArtworkID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed from cart"})
}
