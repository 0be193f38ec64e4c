// README: Session middleware: assigns each browser a conversation id cookie.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "tabi_session"
	sessionKey    = "tabi.session_id"
)

// Session reads the session cookie or issues a new uuid and refreshes the
// cookie lifetime on every request.
func Session(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, int(ttl.Seconds()), "/", "", false, true)
		c.Set(sessionKey, id)
		c.Next()
	}
}

// SessionID returns the id stored by Session, or "" when the middleware did not run.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
