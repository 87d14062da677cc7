package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/artstore-orderflow/internal/validation"
)

func (h *handler) summary(c *gin.Context) {
	s, err := h.cfg.Stats.Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handler) salesOverTime(c *gin.Context) {
	sales, err := h.cfg.Stats.SalesOverTime(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *handler) topProducts(c *gin.Context) {
	var q validation.TopProductsQuery
	if err := validation.BindQueryAndValidate(c, &q, h.v); err != nil {
		return
	}
	top, err := h.cfg.Stats.TopArtworks(c.Request.Context(), q.Limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}

func (h *handler) archiveOld(c *gin.Context) {
	n, err := h.cfg.Stats.ArchiveCompleted(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("archived %d completed orders", n),
		"modifiedCount": n,
	})
}
