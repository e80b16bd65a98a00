package convert

// GenerationParams is the dialect-neutral set of sampling knobs every
// dialect's toUpstream maps into, before NormalizeGenerationConfig clamps
// them and folds in the thinking budget (spec §4.2).
type GenerationParams struct {
	Temperature     *float64
	TopP            *float64
	TopK            *float64
	MaxOutputTokens *int64
	StopSequences   []string
	Thinking        ThinkingMode
	// ThinkingBudgetTokens is an explicit budget (e.g. Claude's
	// budget_tokens); when set it wins over Thinking.
	ThinkingBudgetTokens *int64
}

// UpstreamGenerationConfig mirrors the "generationConfig" object in the
// upstream envelope (spec §3).
type UpstreamGenerationConfig struct {
	Temperature     *float64       `json:"temperature,omitempty"`
	TopP            *float64       `json:"topP,omitempty"`
	TopK            *float64       `json:"topK,omitempty"`
	MaxOutputTokens *int64         `json:"maxOutputTokens,omitempty"`
	StopSequences   []string       `json:"stopSequences,omitempty"`
	ThinkingConfig  *ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// ThinkingConfig carries the resolved thinkingBudget: 0 disables thinking,
// -1 is unlimited, any other value is a literal token budget (spec §4.2).
type ThinkingConfig struct {
	ThinkingBudget int64 `json:"thinkingBudget"`
	IncludeThoughts bool `json:"includeThoughts,omitempty"`
}

// clamp bounds, declared as package constants so tests can assert on the
// same values the normalizer uses.
const (
	minTemperature = 0.0
	maxTemperature = 2.0
	minTopP        = 0.0
	maxTopP        = 1.0
)

// NormalizeGenerationConfig clamps temperature/topP into the ranges
// upstream accepts and resolves the thinking budget from either an explicit
// token count or the ThinkingMode flag (spec §4.2: 0 disabled, -1
// unlimited, else literal).
func NormalizeGenerationConfig(p GenerationParams) UpstreamGenerationConfig {
	out := UpstreamGenerationConfig{
		TopK:            p.TopK,
		MaxOutputTokens: p.MaxOutputTokens,
		StopSequences:   p.StopSequences,
	}

	if p.Temperature != nil {
		t := clamp(*p.Temperature, minTemperature, maxTemperature)
		out.Temperature = &t
	}
	if p.TopP != nil {
		tp := clamp(*p.TopP, minTopP, maxTopP)
		out.TopP = &tp
	}

	switch {
	case p.ThinkingBudgetTokens != nil:
		out.ThinkingConfig = &ThinkingConfig{ThinkingBudget: *p.ThinkingBudgetTokens, IncludeThoughts: true}
	case p.Thinking == ThinkingMax:
		out.ThinkingConfig = &ThinkingConfig{ThinkingBudget: -1, IncludeThoughts: true}
	case p.Thinking == ThinkingOff:
		out.ThinkingConfig = &ThinkingConfig{ThinkingBudget: 0}
	}

	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
