package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cashflow/internal/ratelimit"
)

// RateLimit admits or rejects the request against the endpoint class budget
// before any authentication or validation runs. Rejections answer 429 with
// Retry-After guidance and are not audited; nothing downstream executes.
func RateLimit(limiter *ratelimit.Limiter, class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := limiter.Admit(c.ClientIP(), class)
		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":        "RATE_LIMITED",
					"message":     fmt.Sprintf("Too many requests. Please try again in %d seconds.", retryAfter),
					"retry_after": retryAfter,
				},
			})
			return
		}
		c.Next()
	}
}
