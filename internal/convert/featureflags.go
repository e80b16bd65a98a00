package convert

import (
	"strings"

	"github.com/x161880/antigravity2api/internal/constant"
)

// ThinkingMode is the resolved thinking-budget intent for a request, derived
// either from an explicit generationConfig.thinkingConfig or from a
// feature-flag model-name suffix.
type ThinkingMode int

const (
	ThinkingUnspecified ThinkingMode = iota
	ThinkingMax
	ThinkingOff
)

// ModelFeatures is what ParseModelName strips off a CLI-pool model name
// before the real model id is ever sent upstream (spec §4.2).
type ModelFeatures struct {
	Model         string
	FakeStream    bool
	AntiTruncation bool
	Thinking      ThinkingMode
	AppendSearch  bool
}

// ParseModelName recognizes and strips the Chinese feature-flag prefixes and
// the thinking/search suffixes in a model name. It does not know which pool
// a request targets: the request pipeline applies it to model names of both
// pools, and only the fake-stream prefix is gated to the CLI pool there.
func ParseModelName(model string) ModelFeatures {
	f := ModelFeatures{Model: model}

	if strings.HasPrefix(f.Model, constant.PrefixFakeStream) {
		f.FakeStream = true
		f.Model = strings.TrimPrefix(f.Model, constant.PrefixFakeStream)
	}
	if strings.HasPrefix(f.Model, constant.PrefixAntiTruncation) {
		f.AntiTruncation = true
		f.Model = strings.TrimPrefix(f.Model, constant.PrefixAntiTruncation)
	}

	if strings.HasSuffix(f.Model, constant.SuffixSearch) {
		f.AppendSearch = true
		f.Model = strings.TrimSuffix(f.Model, constant.SuffixSearch)
	}

	switch {
	case strings.HasSuffix(f.Model, constant.SuffixMaxThinking):
		f.Thinking = ThinkingMax
		f.Model = strings.TrimSuffix(f.Model, constant.SuffixMaxThinking)
	case strings.HasSuffix(f.Model, constant.SuffixNoThinking):
		f.Thinking = ThinkingOff
		f.Model = strings.TrimSuffix(f.Model, constant.SuffixNoThinking)
	}

	return f
}
