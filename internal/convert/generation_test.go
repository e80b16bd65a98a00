package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func int64Ptr(n int64) *int64     { return &n }

func TestNormalizeGenerationConfig_ClampsTemperatureAndTopP(t *testing.T) {
	cfg := NormalizeGenerationConfig(GenerationParams{
		Temperature: floatPtr(5.0),
		TopP:        floatPtr(-0.5),
	})
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, maxTemperature, *cfg.Temperature)
	require.NotNil(t, cfg.TopP)
	assert.Equal(t, minTopP, *cfg.TopP)
}

func TestNormalizeGenerationConfig_PassesInRangeValuesUnchanged(t *testing.T) {
	cfg := NormalizeGenerationConfig(GenerationParams{
		Temperature: floatPtr(0.7),
		TopP:        floatPtr(0.9),
	})
	assert.Equal(t, 0.7, *cfg.Temperature)
	assert.Equal(t, 0.9, *cfg.TopP)
}

func TestNormalizeGenerationConfig_ExplicitBudgetWinsOverThinkingMode(t *testing.T) {
	cfg := NormalizeGenerationConfig(GenerationParams{
		Thinking:             ThinkingOff,
		ThinkingBudgetTokens: int64Ptr(1024),
	})
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, int64(1024), cfg.ThinkingConfig.ThinkingBudget)
	assert.True(t, cfg.ThinkingConfig.IncludeThoughts)
}

func TestNormalizeGenerationConfig_ThinkingMaxIsUnlimitedBudget(t *testing.T) {
	cfg := NormalizeGenerationConfig(GenerationParams{Thinking: ThinkingMax})
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, int64(-1), cfg.ThinkingConfig.ThinkingBudget)
}

func TestNormalizeGenerationConfig_ThinkingOffDisablesBudget(t *testing.T) {
	cfg := NormalizeGenerationConfig(GenerationParams{Thinking: ThinkingOff})
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, int64(0), cfg.ThinkingConfig.ThinkingBudget)
	assert.False(t, cfg.ThinkingConfig.IncludeThoughts)
}

func TestNormalizeGenerationConfig_UnspecifiedThinkingLeavesConfigNil(t *testing.T) {
	cfg := NormalizeGenerationConfig(GenerationParams{})
	assert.Nil(t, cfg.ThinkingConfig)
}
