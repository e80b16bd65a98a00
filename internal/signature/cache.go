// Package signature implements the process-wide thought-signature
// continuity cache (C3): an in-memory (model, bucket) -> {signature,
// content, ts} map with TTL expiry and a gating policy that decides
// whether a given signature is worth remembering at all.
package signature

import (
	"sync"
	"time"

	"github.com/x161880/antigravity2api/internal/config"
	"github.com/x161880/antigravity2api/internal/constant"
)

// Entry is one cached continuation token plus the reasoning text it closed
// over, and the time it was written (for TTL expiry).
type Entry struct {
	Signature string
	Content   string
	Timestamp time.Time
}

type key struct {
	model  string
	bucket constant.SignatureBucket
}

// Cache is the process-wide singleton; sessionId is accepted by callers for
// API symmetry but never part of the key (spec §4.3: "continuity is
// per-model").
type Cache struct {
	mu      sync.Mutex
	entries map[key]Entry
	cfg     config.SignatureConfig
}

// New builds a Cache gated by cfg. A zero-value cfg caches nothing, matching
// the "safe by default" posture described in spec §4.3.
func New(cfg config.SignatureConfig) *Cache {
	return &Cache{
		entries: make(map[key]Entry),
		cfg:     cfg,
	}
}

// UpdateConfig hot-swaps the gating policy without clearing existing
// entries.
func (c *Cache) UpdateConfig(cfg config.SignatureConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// Clear drops every entry; used on reload (spec §9: "well-defined reload()
// and clear() so tests can rebuild fresh state").
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]Entry)
}

// Gate mirrors the bucket-selection inputs shouldCacheSignature needs.
type Gate struct {
	HasTools     bool
	IsImageModel bool
}

// shouldCacheSignature implements spec §4.3's gating policy: always cache
// when CacheAllSignatures; otherwise cache tool signatures only when both
// HasTools and CacheToolSignatures, image signatures only when both
// IsImageModel and CacheImageSignatures, and plain reasoning only when
// CacheThinking.
func (c *Cache) shouldCacheSignature(g Gate) bool {
	if c.cfg.CacheAllSignatures {
		return true
	}
	if g.HasTools && c.cfg.CacheToolSignatures {
		return true
	}
	if g.IsImageModel && c.cfg.CacheImageSignatures {
		return true
	}
	if !g.HasTools && !g.IsImageModel && c.cfg.CacheThinking {
		return true
	}
	return false
}

func bucketFor(g Gate) constant.SignatureBucket {
	if g.HasTools {
		return constant.BucketTool
	}
	return constant.BucketReasoning
}

// SetSignature stores signature/content for (model, bucket-from-gate) if the
// gating policy admits it. sessionId is accepted but unused (spec §4.3).
func (c *Cache) SetSignature(sessionID, model, sig, content string, g Gate) {
	if sig == "" || model == "" || !c.shouldCacheSignature(g) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{model: model, bucket: bucketFor(g)}] = Entry{
		Signature: sig,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// GetSignature returns the most recent matching entry for (model,
// bucket-from-gate), or ok=false if absent or expired under
// config.TTLSeconds (0 disables expiry).
func (c *Cache) GetSignature(sessionID, model string, g Gate) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key{model: model, bucket: bucketFor(g)}]
	if !found {
		return Entry{}, false
	}
	if c.cfg.TTLSeconds > 0 && time.Since(entry.Timestamp) > time.Duration(c.cfg.TTLSeconds)*time.Second {
		return Entry{}, false
	}
	return entry, true
}
