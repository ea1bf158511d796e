// README: Bearer ID-token auth; installed only when a Firebase project is configured.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"atlas/internal/infra"
)

const callerKey = "atlas.caller"

// Auth rejects requests without a valid ID token. Browsers cannot set headers
// on a websocket upgrade, so a token query parameter is accepted as well.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		caller, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if h := c.GetHeader("Authorization"); h != "" {
		token, found := strings.CutPrefix(h, "Bearer ")
		token = strings.TrimSpace(token)
		return token, found && token != ""
	}
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t, true
	}
	return "", false
}

// CallerUID returns the authenticated user ID, or "" when auth is disabled.
func CallerUID(c *gin.Context) string {
	v, ok := c.Get(callerKey)
	if !ok {
		return ""
	}
	if caller, ok := v.(*infra.Caller); ok {
		return caller.UID
	}
	return ""
}
