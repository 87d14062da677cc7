package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
)

const (
	sessionCookie = "user_id"
	accountHeader = "X-Account-Id"
	accountKey    = "account"
)

// Authenticate resolves the session cookie, or the account header for API clients, to an
// account. Unknown ids leave the request anonymous.
func Authenticate(resolver AccountResolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || id == "" {
			id = strings.TrimSpace(c.GetHeader(accountHeader))
		}
		if id == "" {
			c.Next()
			return
		}
		acc, err := resolver.Get(c.Request.Context(), id)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "resolve account failed", "account_id", id, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if acc != nil {
			c.Set(accountKey, acc)
		}
		c.Next()
	}
}

// RequireAccount rejects anonymous requests with 401.
func RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentAccount(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects non-admin accounts with 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentAccount(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied, administrator rights required"})
			return
		}
		c.Next()
	}
}

func currentAccount(c *gin.Context) *accounts.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	acc, _ := v.(*accounts.Account)
	return acc
}
