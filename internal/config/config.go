// Package config provides configuration management for the proxy server.
// It handles loading and parsing a YAML configuration file, overlaying a
// .env file for secret-like values, and provides structured access to
// settings spanning the HTTP server, the two account pools, rotation
// policy, the signature cache, and the stream engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML
// file and overlaid with environment variables from a .env file.
type Config struct {
	// Port is the network port on which the API server listens.
	Port int `yaml:"port"`
	// AuthDir is the directory holding the encrypted account store files.
	AuthDir string `yaml:"auth-dir"`
	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
	// ProxyURL is an optional upstream proxy (http, https, or socks5).
	ProxyURL string `yaml:"proxy-url"`
	// APIKeys authenticate inbound clients to this proxy.
	APIKeys []string `yaml:"api-keys"`
	// RequestLog enables per-request logging of request/response bodies.
	RequestLog bool `yaml:"request-log"`

	// Rotation configures how the Account Managers advance currentIndex.
	Rotation RotationConfig `yaml:"rotation"`

	// Signature configures the thought-signature cache gating policy.
	Signature SignatureConfig `yaml:"signature"`

	// Stream configures the stream engine's ambient behavior.
	Stream StreamConfig `yaml:"stream"`

	// RetryTimes bounds the 429-aware retry helper (spec §4.4).
	RetryTimes int `yaml:"retry-times"`

	// RequestTimeoutSeconds bounds the upstream call's connect+read window
	// (spec §5); stream reads are exempt once headers arrive.
	RequestTimeoutSeconds int `yaml:"request-timeout-seconds"`

	// Antigravity holds the OAuth client configuration for the Antigravity pool.
	Antigravity OAuthClientConfig `yaml:"antigravity"`
	// CLI holds the OAuth client configuration for the Gemini CLI pool.
	CLI OAuthClientConfig `yaml:"cli"`
}

// OAuthClientConfig is the client id/secret/scope set for one OAuth variant.
type OAuthClientConfig struct {
	ClientID     string   `yaml:"client-id"`
	ClientSecret string   `yaml:"client-secret"`
	Scopes       []string `yaml:"scopes"`
}

// RotationConfig mirrors spec §3's three rotation strategies.
type RotationConfig struct {
	// Strategy is one of "round_robin", "request_count", "quota_exhausted".
	Strategy string `yaml:"strategy"`
	// RequestCount is the N used by the request_count strategy.
	RequestCount int `yaml:"request-count"`
}

// SignatureConfig mirrors the gating policy described in spec §4.3.
type SignatureConfig struct {
	CacheAllSignatures bool `yaml:"cache-all-signatures"`
	CacheToolSignatures bool `yaml:"cache-tool-signatures"`
	CacheImageSignatures bool `yaml:"cache-image-signatures"`
	CacheThinking       bool `yaml:"cache-thinking"`
	// TTLSeconds expires cached entries; 0 disables expiry.
	TTLSeconds int `yaml:"ttl-seconds"`
}

// StreamConfig mirrors spec §4.4's fake-mode and heartbeat settings.
type StreamConfig struct {
	FakeNonStream     bool `yaml:"fake-non-stream"`
	HeartbeatSeconds  int  `yaml:"heartbeat-seconds"`
	PassSignatureToClient bool `yaml:"pass-signature-to-client"`
}

// defaults applies the values spec.md cites (default rotation, retryTimes,
// heartbeat, connect+read timeout) when a config file omits them.
func (c *Config) defaults() {
	if c.Rotation.Strategy == "" {
		c.Rotation.Strategy = "round_robin"
	}
	if c.Rotation.RequestCount <= 0 {
		c.Rotation.RequestCount = 1
	}
	if c.RetryTimes <= 0 {
		c.RetryTimes = 3
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 60
	}
	if c.Stream.HeartbeatSeconds <= 0 {
		c.Stream.HeartbeatSeconds = 15
	}
	if c.AuthDir == "" {
		c.AuthDir = "accounts"
	}
}

// LoadConfig reads a YAML configuration file from the given path, overlays
// a sibling .env file when present, unmarshals it into a Config struct,
// expands "~" in AuthDir, and applies defaults.
func LoadConfig(configFile string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configFile), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err = godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if strings.HasPrefix(cfg.AuthDir, "~") {
		home, errHome := os.UserHomeDir()
		if errHome == nil {
			cfg.AuthDir = filepath.Join(home, strings.TrimPrefix(cfg.AuthDir, "~"))
		}
	}

	applyEnvOverrides(&cfg)
	cfg.defaults()

	return &cfg, nil
}

// applyEnvOverrides lets the OAuth client credentials live in the
// environment instead of the YAML file, matching the convention the rest of
// the example pack uses for secret-shaped config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANTIGRAVITY_CLIENT_ID"); v != "" {
		cfg.Antigravity.ClientID = v
	}
	if v := os.Getenv("ANTIGRAVITY_CLIENT_SECRET"); v != "" {
		cfg.Antigravity.ClientSecret = v
	}
	if v := os.Getenv("GEMINI_CLI_CLIENT_ID"); v != "" {
		cfg.CLI.ClientID = v
	}
	if v := os.Getenv("GEMINI_CLI_CLIENT_SECRET"); v != "" {
		cfg.CLI.ClientSecret = v
	}
}
