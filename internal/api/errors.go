package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/x161880/antigravity2api/internal/constant"
	"github.com/x161880/antigravity2api/internal/convert"
)

// dialectFromPath infers the dialect from a matched gin route, falling back
// to Gemini for any unmatched/ops route (spec §6's routing table).
func dialectFromPath(path string) constant.Dialect {
	switch {
	case strings.Contains(path, "/chat/completions"):
		return constant.DialectOpenAI
	case strings.Contains(path, "/messages"):
		return constant.DialectClaude
	default:
		return constant.DialectGemini
	}
}

// writeError responds with the dialect's error envelope at the given HTTP
// status, used whenever headers have not yet been sent (spec §7).
func writeError(c *gin.Context, dialect constant.Dialect, status int, errType, message string) {
	c.JSON(status, convert.ErrorEnvelope(dialect, errType, message, status))
}

// writeStreamError writes a dialect-shaped error frame onto an
// already-open SSE response and closes it, used when headers have already
// been sent (spec §7: "is headers already sent? If yes, write a
// dialect-shaped error frame and close").
func writeStreamError(c *gin.Context, dialect constant.Dialect, status int, errType, message string) {
	envelope := convert.ErrorEnvelope(dialect, errType, message, status)
	writeSSEJSON(c, envelope)
}
