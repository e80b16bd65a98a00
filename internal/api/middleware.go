// Package api implements the Request Handlers (C6): per-dialect gin
// endpoints that validate the inbound request, pick an account, drive the
// protocol converter and stream engine, and translate errors into the
// calling dialect's envelope.
package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// apiKeyAuth enforces the inbound API key from Authorization: Bearer,
// x-api-key, or ?key= (the Gemini dialect's convention) against the
// configured key set (spec §6).
func apiKeyAuth(keys []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}

		key := extractKey(c)
		if _, ok := allowed[key]; !ok {
			dialect := dialectFromPath(c.FullPath())
			writeError(c, dialect, 401, "AuthRequired", "invalid or missing API key")
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if header := c.GetHeader("x-api-key"); header != "" {
		return header
	}
	return c.Query("key")
}
