// Package constant centralizes the small fixed vocabulary shared across
// dialects, pools and components: dialect names, pool names, and the
// feature-flag model-name affixes recognized by the CLI pool.
package constant

// Dialect identifies one of the three public chat protocols.
type Dialect string

const (
	DialectOpenAI Dialect = "openai"
	DialectGemini Dialect = "gemini"
	DialectClaude Dialect = "claude"
)

// Pool identifies which upstream variant an Account Manager fronts.
type Pool string

const (
	PoolAntigravity Pool = "antigravity"
	PoolCLI         Pool = "cli"
)

// Rotation strategies understood by the Account Manager (spec §3).
type RotationStrategy string

const (
	RotationRoundRobin     RotationStrategy = "round_robin"
	RotationRequestCount   RotationStrategy = "request_count"
	RotationQuotaExhausted RotationStrategy = "quota_exhausted"
)

// Signature cache buckets (spec §3).
type SignatureBucket string

const (
	BucketReasoning SignatureBucket = "reasoning"
	BucketTool      SignatureBucket = "tool"
)

// SkipThoughtSignature is the upstream bypass sentinel (spec §9): a
// last-resort fallback, never a default.
const SkipThoughtSignature = "skip_thought_signature_validator"

// Feature-flag model-name affixes recognized by the CLI pool (spec §4.2).
const (
	PrefixFakeStream         = "假流式/"
	PrefixAntiTruncation     = "流式抗截断/"
	SuffixMaxThinking        = "-maxthinking"
	SuffixNoThinking         = "-nothinking"
	SuffixSearch             = "-search"
)

// Upstream hosts (spec §6).
const (
	HostCLIUpstream            = "https://cloudcode-pa.googleapis.com"
	HostAntigravityUpstream    = "https://daily-cloudcode-pa.googleapis.com"
	HostAntigravitySandbox     = "https://daily-cloudcode-pasandbox.googleapis.com"
	OAuthTokenEndpoint         = "https://oauth2.googleapis.com/token"
	LoadCodeAssistPathInternal = "v1internal:loadCodeAssist"
	OnboardUserPathInternal    = "v1internal:onboardUser"
)

// User-Agent strings spoofed per pool (spec §6).
const (
	UserAgentCLI         = "GeminiCLI/0.1.0 (linux; x86_64)"
	UserAgentAntigravity = "antigravity/1.104.0 (linux; x86_64)"
)
