package ui

import (
	"net/http"
	"time"

	"rnaseqde/internal"
	"rnaseqde/internal/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// sessionMiddleware attaches the visitor's session, handing out a cookie when
// the visitor has none or it expired.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(s.cfg.CookieName)
		sess, created := s.sessions.Resolve(raw)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(s.cfg.CookieName, sess.ID.String(), 0, "/", "", s.cfg.SecureCookie, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// requestLogger logs one line per request
func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			logger.Warn("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
			return
		}
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
	}
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
