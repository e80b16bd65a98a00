package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/x161880/antigravity2api/internal/constant"
)

// GeminiGenerateContent handles both POST
// {,/cli}/v1beta/models/{model}:generateContent and the :streamGenerateContent
// variant, distinguishing them by the gin path's trailing action segment
// (spec §6).
func (d *Deps) GeminiGenerateContent(cliPool bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, constant.DialectGemini, http.StatusBadRequest, "InvalidRequest", "failed to read request body")
			return
		}

		model, action := splitModelAction(c.Param("model"))
		if model == "" {
			writeError(c, constant.DialectGemini, http.StatusBadRequest, "InvalidRequest", "model is required")
			return
		}

		d.runPipeline(c, chatRequest{
			dialect:      constant.DialectGemini,
			cliPool:      cliPool,
			rawModel:     model,
			rawJSON:      body,
			streamWanted: action == "streamGenerateContent",
		})
	}
}

// splitModelAction splits gin's `{model}:action` path parameter back into
// its two parts, since gin does not parse the colon-delimited verb Google's
// APIs hang off the model id.
func splitModelAction(raw string) (model, action string) {
	raw = strings.TrimPrefix(raw, "/")
	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return raw, ""
	}
	return raw[:idx], raw[idx+1:]
}
