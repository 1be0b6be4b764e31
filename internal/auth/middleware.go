package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attendboard/internal/store"
)

const sessionKey = "session"

// SessionAuth resolves the bearer token to a live session.
func SessionAuth(signingKey, issuer string, sessions *store.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		sess, err := sessions.Get(claims.SessionID())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.Set(sessionKey, sess)
		c.Set("session_id", sess.ID)
		c.Next()
	}
}

// RequireView rejects requests whose session role may not see view. The role
// is read from the store on every request.
func RequireView(view View) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session"})
			return
		}
		if !Allowed(view, sess.Store.Role()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "view not available for role", "view": view})
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session set by SessionAuth.
func SessionFrom(c *gin.Context) *store.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*store.Session)
	return sess
}
