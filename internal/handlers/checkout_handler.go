package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/artstore-orderflow/internal/validation"
)

func (h *handler) initiateCheckout(c *gin.Context) {
	order, err := h.cfg.Checkout.Initiate(c.Request.Context(), currentAccount(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "order created, check your email for the verification code",
		"orderId":       order.OrderID,
		"totalAmount":   order.TotalAmount,
		"codeExpiresAt": order.CodeExpiresAt,
	})
}

func (h *handler) verifyCheckout(c *gin.Context) {
	var req validation.VerifyRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	order, err := h.cfg.Verifier.Verify(c.Request.Context(), currentAccount(c).ID, req.OrderID, req.VerificationCode)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order confirmed", "order": order})
}

func (h *handler) resendCode(c *gin.Context) {
	var req validation.ResendRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	if err := h.cfg.Checkout.ResendCode(c.Request.Context(), currentAccount(c).ID, req.OrderID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}
