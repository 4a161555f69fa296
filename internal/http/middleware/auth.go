package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/portfolio-backend/internal/auth"
)

// Context keys set by RequireAdmin.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
)

// RequireAdmin verifies the bearer ID token and admits only verified admin
// identities. Missing or invalid tokens get 401, other identities get 403.
// On success the subject and email are stored under CtxUserID and
// CtxUserEmail.
func RequireAdmin(v auth.Verifier, admins auth.AdminSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer`)
			abortJSON(c, http.StatusUnauthorized, "unauthenticated", auth.ErrUnauthenticated.Error())
			return
		}
		id, err := v.Verify(c.Request.Context(), raw)
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("token rejected")
			msg := auth.ErrInvalidToken.Error()
			if errors.Is(err, auth.ErrUnauthenticated) {
				msg = auth.ErrUnauthenticated.Error()
			}
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			abortJSON(c, http.StatusUnauthorized, "unauthenticated", msg)
			return
		}

		c.Set(CtxUserID, id.Subject)
		c.Set(CtxUserEmail, id.Email)
		if !admins.IsAdmin(id) {
			LoggerFrom(c).Warn().Str("user_id", id.Subject).Msg("non-admin identity refused")
			abortJSON(c, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		c.Next()
	}
}
