package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/x161880/antigravity2api/internal/config"
)

func TestAccountPassphrase_DefaultsWhenEnvUnset(t *testing.T) {
	t.Setenv("ACCOUNT_STORE_PASSPHRASE", "")
	assert.Equal(t, "antigravity2api-default-passphrase", accountPassphrase())
}

func TestAccountPassphrase_UsesEnvWhenSet(t *testing.T) {
	t.Setenv("ACCOUNT_STORE_PASSPHRASE", "custom-secret")
	assert.Equal(t, "custom-secret", accountPassphrase())
}

func TestRunLogin_RejectsUnknownPool(t *testing.T) {
	cfg := &config.Config{AuthDir: t.TempDir()}
	err := runLogin(cfg, "not-a-real-pool")
	assert.Error(t, err)
}
