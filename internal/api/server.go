package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every route spec §6 names, wired
// against the shared Deps.
func NewRouter(d *Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", Health())
	r.GET("/v1/memory", Memory())

	auth := apiKeyAuth(d.Config.APIKeys)

	registerDialectRoutes(r, d, auth, "", false)
	registerDialectRoutes(r, d, auth, "/cli", true)

	return r
}

// registerDialectRoutes mounts the three dialects' chat/model endpoints
// under the given prefix, selecting the Antigravity or CLI account pool
// (spec §6: the /cli prefix is the only signal that picks the Gemini CLI
// pool and lets the fake-stream model-name prefix take effect).
func registerDialectRoutes(r *gin.Engine, d *Deps, auth gin.HandlerFunc, prefix string, cliPool bool) {
	group := r.Group(prefix, auth)

	group.POST("/v1/chat/completions", d.OpenAIChatCompletions(cliPool))
	group.GET("/v1/models", d.OpenAIModels())

	group.POST("/v1beta/models/:model", d.GeminiGenerateContent(cliPool))
	group.GET("/v1beta/models", d.GeminiModels())

	group.POST("/v1/messages", d.ClaudeMessages(cliPool))
}
