package convert

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// safeAlphabet is what upstream Gemini tolerates in a function name: ASCII
// letters, digits, underscore, and dash. Anything else is rewritten to an
// underscore and the original is preserved in a per-model bijection so the
// client dialect always sees its own name back (spec §4.2, §8 property 4).
const safeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// ToolNameRegistry holds one safe<->original bijection per model. Tool names
// collide across unrelated requests to different models, so the bijection is
// scoped per model rather than global.
type ToolNameRegistry struct {
	mu      sync.Mutex
	byModel map[string]*modelNames
}

type modelNames struct {
	safeToOriginal map[string]string
	originalToSafe map[string]string
}

// NewToolNameRegistry builds an empty registry.
func NewToolNameRegistry() *ToolNameRegistry {
	return &ToolNameRegistry{byModel: make(map[string]*modelNames)}
}

func (r *ToolNameRegistry) forModel(model string) *modelNames {
	r.mu.Lock()
	defer r.mu.Unlock()
	mn, ok := r.byModel[model]
	if !ok {
		mn = &modelNames{
			safeToOriginal: make(map[string]string),
			originalToSafe: make(map[string]string),
		}
		r.byModel[model] = mn
	}
	return mn
}

// Sanitize returns a safe-alphabet name for original, registering the
// mapping under model if one does not already exist. Calling Sanitize twice
// for the same original returns the same safe name (idempotent per model).
func (r *ToolNameRegistry) Sanitize(model, original string) string {
	mn := r.forModel(model)

	r.mu.Lock()
	defer r.mu.Unlock()
	if safe, ok := mn.originalToSafe[original]; ok {
		return safe
	}

	safe := sanitizeName(original)
	// Disambiguate collisions from lossy sanitization by appending a suffix.
	candidate := safe
	suffix := 1
	for {
		if _, taken := mn.safeToOriginal[candidate]; !taken {
			break
		}
		candidate = safe + "_" + strconv.Itoa(suffix)
		suffix++
	}
	mn.safeToOriginal[candidate] = original
	mn.originalToSafe[original] = candidate
	return candidate
}

// Resolve inverts Sanitize: given a safe name seen on the wire, returns the
// original the client sent, or safe itself if no mapping is registered
// (defensive fallback for names that needed no mangling).
func (r *ToolNameRegistry) Resolve(model, safe string) string {
	mn := r.forModel(model)
	r.mu.Lock()
	defer r.mu.Unlock()
	if original, ok := mn.safeToOriginal[safe]; ok {
		return original
	}
	return safe
}

func sanitizeName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(safeAlphabet, r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// jsonSchemaDropFields are JSON-Schema-only keys upstream Gemini rejects on a
// function declaration's parameters object.
var jsonSchemaDropFields = []string{"additionalProperties", "$schema", "title", "examples"}

// cleanParameters normalizes a JSON Schema-ish tool-parameters object into
// what upstream Gemini function declarations accept: drop fields it
// rejects, uppercase "type":"object" to "OBJECT" (Gemini's schema dialect
// uses uppercase type names), and default a missing "properties" to {}
// (spec §4.2). It rewrites the raw JSON in place with sjson rather than
// rebuilding a map by hand, the same way the teacher's request translator
// reshapes schema documents field by field.
func cleanParameters(raw gjson.Result) map[string]any {
	if !raw.Exists() || !raw.IsObject() {
		return map[string]any{"type": "OBJECT", "properties": map[string]any{}}
	}

	doc := raw.Raw
	for _, field := range jsonSchemaDropFields {
		if raw.Get(field).Exists() {
			if d, err := sjson.Delete(doc, field); err == nil {
				doc = d
			}
		}
	}

	typ := "OBJECT"
	if t := gjson.Get(doc, "type"); t.Exists() {
		typ = strings.ToUpper(t.String())
	}
	if d, err := sjson.Set(doc, "type", typ); err == nil {
		doc = d
	}
	if typ == "OBJECT" && !gjson.Get(doc, "properties").Exists() {
		if d, err := sjson.SetRaw(doc, "properties", "{}"); err == nil {
			doc = d
		}
	}

	cleaned := map[string]any{}
	if err := json.Unmarshal([]byte(doc), &cleaned); err != nil {
		return map[string]any{"type": "OBJECT", "properties": map[string]any{}}
	}

	if rawProps := gjson.Get(doc, "properties"); rawProps.IsObject() {
		props := map[string]any{}
		rawProps.ForEach(func(pk, pv gjson.Result) bool {
			props[pk.String()] = cleanParameters(pv)
			return true
		})
		cleaned["properties"] = props
	}
	if rawItems := gjson.Get(doc, "items"); rawItems.Exists() {
		cleaned["items"] = cleanParameters(rawItems)
	}
	return cleaned
}
