// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file adapts ratelimit.Limiter to Gin. Each RateLimit middleware is
// bound to one quota; several can share a Limiter (and so a Store) because
// quota names keep their counters apart.
//
// Every checked response carries:
//
//	X-RateLimit-Limit:     quota size
//	X-RateLimit-Remaining: requests left in the current window
//	X-RateLimit-Reset:     seconds until the window ends
//
// and a denied one also carries Retry-After (seconds).
package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/portfolio-backend/internal/ratelimit"
)

// KeyFunc selects the client identifier a quota is counted against.
type KeyFunc func(*gin.Context) string

// ClientID prefers the authenticated subject ("user:<sub>") and falls back to
// Gin's client address ("ip:<addr>"). Forwarding headers only count when the
// TCP peer is one of the engine's trusted proxies, so a caller cannot pick a
// fresh identity per request. Place auth middleware before the limiter to
// get per-user quotas.
func ClientID(c *gin.Context) string {
	if uid := c.GetString(CtxUserID); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}

// RateLimitOptions configures one RateLimit middleware.
type RateLimitOptions struct {
	// Quota is the fixed window; Quota.Name labels metrics and scopes keys.
	Quota ratelimit.Config
	// Key defaults to ClientID.
	Key KeyFunc
	// Message builds the 429 error text. Defaults to DefaultLimitMessage.
	Message func(ratelimit.Result) string
}

// DefaultLimitMessage is the generic 429 text.
func DefaultLimitMessage(r ratelimit.Result) string {
	return fmt.Sprintf("Rate limit exceeded. Please try again in %d minute(s).", r.RetryMinutes())
}

// AILimitMessage is the 429 text for the AI generation quota. The period is
// taken from the quota window ("per hour" for the default one).
func AILimitMessage(r ratelimit.Result) string {
	return fmt.Sprintf(
		"Rate limit exceeded. You can make %d AI generation requests per %s. Please try again in %d minute(s).",
		r.Limit, windowPhrase(r.Window), r.RetryMinutes(),
	)
}

// windowPhrase renders a quota window for humans: "hour", "30 minutes",
// "day". Windows that are not whole minutes fall back to Duration.String.
func windowPhrase(d time.Duration) string {
	switch {
	case d <= 0:
		return "hour"
	case d == 24*time.Hour:
		return "day"
	case d == time.Hour:
		return "hour"
	case d == time.Minute:
		return "minute"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}

// RateLimit counts every request against opts.Quota and answers 429 once
// the window is exhausted. A store failure admits the request (see
// ratelimit.Limiter.Check).
func RateLimit(l *ratelimit.Limiter, opts RateLimitOptions) gin.HandlerFunc {
	key := opts.Key
	if key == nil {
		key = ClientID
	}
	msg := opts.Message
	if msg == nil {
		msg = DefaultLimitMessage
	}
	scope := opts.Quota.Name
	if scope == "" {
		scope = "default"
	}

	return func(c *gin.Context) {
		res := l.Check(c.Request.Context(), key(c), opts.Quota)

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.Itoa(ceilSeconds(res.ResetIn)))

		if res.Allowed {
			rateDecisions.WithLabelValues(scope, "allowed").Inc()
			c.Next()
			return
		}

		rateDecisions.WithLabelValues(scope, "limited").Inc()
		h.Set("Retry-After", strconv.Itoa(max(ceilSeconds(res.ResetIn), 1)))
		LoggerFrom(c).Warn().
			Str("scope", scope).
			Int("limit", res.Limit).
			Dur("reset_in", res.ResetIn).
			Msg("rate limit exceeded")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": msg(res)})
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
