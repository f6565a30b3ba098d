package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cashflow/internal/auth"
)

// Context keys set by Auth for downstream handlers.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// Auth verifies the bearer token with the injected verifier and sets the
// caller's identity in the context. A missing, malformed, expired, or
// badly signed token aborts with 401; the response never says which.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		identity, err := verifier.Verify(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextEmail, identity.Email)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"code": "UNAUTHORIZED", "message": message},
	})
}
