package convert

import "github.com/x161880/antigravity2api/internal/signature"

// resolveSignature implements spec §4.2 step 1: consult the cache under
// (model, hasTools), fall back to a hardcoded per-model default, and fall
// back again to the upstream bypass sentinel. It never returns empty.
func resolveSignature(cache *signature.Cache, sessionID, model string, hasTools bool) string {
	if cache != nil {
		if entry, ok := cache.GetSignature(sessionID, model, signature.Gate{HasTools: hasTools}); ok {
			return entry.Signature
		}
	}
	if def, ok := defaultSignatures[model]; ok {
		return def
	}
	return skipSignatureSentinel
}

// skipSignatureSentinel is the known upstream bypass; a last resort, never
// a default (spec §9).
const skipSignatureSentinel = "skip_thought_signature_validator"

// defaultSignatures are hardcoded per-model fallbacks used when the cache
// has no entry yet (e.g. the very first turn of a session). Empty by
// default; operators observed to need one can extend this table.
var defaultSignatures = map[string]string{}

// attachReasoningSignature sets ThoughtSignature on a reasoning ("thought")
// part when converting a historical assistant turn (spec §4.2 step 2).
func attachReasoningSignature(part *Part, sig string) {
	if part.Thought {
		part.ThoughtSignature = sig
	}
}

// attachFunctionCallSignature always attaches the resolved tool-bucket
// signature to a function-call part lacking one, even when thinking is
// disabled, because tool continuation requires it (spec §4.2 step 3).
func attachFunctionCallSignature(part *Part, sig string) {
	if part.FunctionCall != nil && part.ThoughtSignature == "" {
		part.ThoughtSignature = sig
	}
}

// foldStandaloneSignatures implements spec §4.2 step 4: upstream sometimes
// emits a standalone part carrying only a thoughtSignature (no text,
// thought, functionCall, inlineData, functionResponse, or fileData
// payload). Fold it onto the next adjacent thought/functionCall/inlineData
// part in order, then drop the placeholder.
func foldStandaloneSignatures(parts []Part) []Part {
	out := make([]Part, 0, len(parts))
	var pendingSig string

	isStandalone := func(p Part) bool {
		return p.Text == "" && !p.Thought && p.FunctionCall == nil &&
			p.FunctionResponse == nil && p.InlineData == nil && p.FileData == nil &&
			p.ThoughtSignature != ""
	}

	for _, p := range parts {
		if isStandalone(p) {
			pendingSig = p.ThoughtSignature
			continue
		}
		if pendingSig != "" && (p.Thought || p.FunctionCall != nil || p.InlineData != nil) {
			p.ThoughtSignature = pendingSig
			pendingSig = ""
		}
		out = append(out, p)
	}
	return out
}
