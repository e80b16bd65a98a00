package api

import (
	"github.com/gin-gonic/gin"

	"github.com/x161880/antigravity2api/internal/registry"
)

// OpenAIModels handles GET {,/cli}/v1/models.
func (d *Deps) OpenAIModels() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, registry.OpenAIModelList())
	}
}

// GeminiModels handles GET {,/cli}/v1beta/models.
func (d *Deps) GeminiModels() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, registry.GeminiModelList())
	}
}
