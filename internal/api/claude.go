package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/x161880/antigravity2api/internal/constant"
)

// ClaudeMessages handles POST {,/cli}/v1/messages (spec §6).
func (d *Deps) ClaudeMessages(cliPool bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, constant.DialectClaude, http.StatusBadRequest, "InvalidRequest", "failed to read request body")
			return
		}

		parsed := gjson.ParseBytes(body)
		model := parsed.Get("model").String()
		if model == "" {
			writeError(c, constant.DialectClaude, http.StatusBadRequest, "InvalidRequest", "model is required")
			return
		}

		d.runPipeline(c, chatRequest{
			dialect:      constant.DialectClaude,
			cliPool:      cliPool,
			rawModel:     model,
			rawJSON:      body,
			streamWanted: parsed.Get("stream").Bool(),
		})
	}
}
