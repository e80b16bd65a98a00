// Package registry holds the static per-dialect model list the /v1/models
// family of endpoints serves (spec §6). The upstream Code Assist endpoints
// do not expose a model-listing call of their own, so this mirrors what the
// teacher pack hardcodes for its equivalent routes.
package registry

import "time"

// Model is one listed model entry.
type Model struct {
	ID      string
	Created int64
	OwnedBy string
}

// knownModels is the fixed set of Gemini model ids this proxy fronts.
var knownModels = []string{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
}

// List returns every known model, stamped with a fixed creation time so
// repeated calls are stable within a process lifetime.
func List() []Model {
	out := make([]Model, 0, len(knownModels))
	created := bootTime.Unix()
	for _, id := range knownModels {
		out = append(out, Model{ID: id, Created: created, OwnedBy: "google"})
	}
	return out
}

var bootTime = time.Now()

// OpenAIModelList renders List() in OpenAI's {object:"list", data:[...]}
// shape.
func OpenAIModelList() map[string]any {
	data := make([]any, 0, len(knownModels))
	for _, m := range List() {
		data = append(data, map[string]any{
			"id":       m.ID,
			"object":   "model",
			"created":  m.Created,
			"owned_by": m.OwnedBy,
		})
	}
	return map[string]any{"object": "list", "data": data}
}

// GeminiModelList renders List() in Gemini's {models:[...]} shape.
func GeminiModelList() map[string]any {
	models := make([]any, 0, len(knownModels))
	for _, m := range List() {
		models = append(models, map[string]any{
			"name":        "models/" + m.ID,
			"displayName": m.ID,
		})
	}
	return map[string]any{"models": models}
}
