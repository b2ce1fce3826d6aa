package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
	"github.com/sirupsen/logrus"
)

const sessionContextKey = "walletauth.session"

type authenticatedSession struct {
	grant    core.SessionGrant
	identity core.Identity
}

func sessionFromContext(c *gin.Context) (authenticatedSession, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return authenticatedSession{}, false
	}
	session, ok := v.(authenticatedSession)
	return session, ok
}

// AuthMiddleware creates middleware that validates bearer session grants
func AuthMiddleware(authService *service.AuthService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CodeInvalidSession})
			return
		}

		grant, identity, err := authService.ValidateSession(c.Request.Context(), token)
		if err != nil {
			status, code := classify(err)
			if status >= http.StatusInternalServerError {
				log.WithError(err).Error("session validation failed")
			}
			c.AbortWithStatusJSON(status, gin.H{"error": code})
			return
		}

		c.Set(sessionContextKey, authenticatedSession{grant: grant, identity: identity})
		c.Next()
	}
}

// RequestLogger logs one line per request
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(started),
			"client":   c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request served")
			return
		}
		entry.Debug("request served")
	}
}
