package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/artstore-orderflow/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.Unauthenticated:  http.StatusUnauthorized,
	apperr.Forbidden:        http.StatusForbidden,
	apperr.NotFound:         http.StatusNotFound,
	apperr.InvalidInput:     http.StatusBadRequest,
	apperr.EmptyCart:        http.StatusBadRequest,
	apperr.InventoryDrift:   http.StatusBadRequest,
	apperr.InvalidCode:      http.StatusUnauthorized,
	apperr.CodeExpired:      http.StatusBadRequest,
	apperr.AlreadyFinalized: http.StatusBadRequest,
	apperr.Unavailable:      http.StatusInternalServerError,
}

// writeError maps err to a status and a client-safe message. Server-side causes are logged.
func (h *handler) writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		attrs := []any{"path", c.FullPath(), "error", err}
		if acc := currentAccount(c); acc != nil {
			attrs = append(attrs, "account_id", acc.ID)
		}
		h.cfg.Log.ErrorContext(c.Request.Context(), "request failed", attrs...)
	}

	body := gin.H{"error": apperr.Message(err)}
	if kind == apperr.InventoryDrift {
		body["refreshCart"] = true
	}
	c.JSON(status, body)
}
