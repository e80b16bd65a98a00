package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/x161880/antigravity2api/internal/constant"
)

// OpenAIChatCompletions handles POST {,/cli}/v1/chat/completions. The CLI
// prefix selects the Gemini CLI account pool and is the only route family on
// which the fake-stream model-name prefix takes effect (spec §4.2, §6).
func (d *Deps) OpenAIChatCompletions(cliPool bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, constant.DialectOpenAI, http.StatusBadRequest, "InvalidRequest", "failed to read request body")
			return
		}

		parsed := gjson.ParseBytes(body)
		model := parsed.Get("model").String()
		if model == "" {
			writeError(c, constant.DialectOpenAI, http.StatusBadRequest, "InvalidRequest", "model is required")
			return
		}

		d.runPipeline(c, chatRequest{
			dialect:      constant.DialectOpenAI,
			cliPool:      cliPool,
			rawModel:     model,
			rawJSON:      body,
			streamWanted: parsed.Get("stream").Bool(),
		})
	}
}
