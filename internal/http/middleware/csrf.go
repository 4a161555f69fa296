package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/portfolio-backend/internal/security"
)

// CSRF rejects state-changing requests whose Origin (or, failing that,
// Referer) is not trusted by policy. Safe methods pass without inspection.
// The rejection body is {"error": security.CSRFRejectionMessage} with
// status 403.
func CSRF(policy *security.OriginPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := policy.CSRFGate(
			c.Request.Method,
			c.GetHeader("Origin"),
			c.GetHeader("Referer"),
			c.Request.URL.String(),
		)
		if d.Allowed {
			c.Next()
			return
		}
		csrfRejections.Inc()
		LoggerFrom(c).Warn().
			Str("origin", c.GetHeader("Origin")).
			Str("referer", Scrub(c.GetHeader("Referer"))).
			Msg("cross-origin request rejected")
		c.AbortWithStatusJSON(d.Status, gin.H{"error": d.Message})
	}
}
