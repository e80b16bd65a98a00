package api

import "github.com/x161880/antigravity2api/internal/constant"

const (
	cliHost              = constant.HostCLIUpstream
	cliUserAgent         = constant.UserAgentCLI
	antigravityHost      = constant.HostAntigravityUpstream
	antigravityUserAgent = constant.UserAgentAntigravity
)

// cliHostOverride and antigravityHostOverride let tests point a pool's
// upstream host at an httptest server without threading a config field
// through every call site; empty means "use the real host".
var (
	cliHostOverride         string
	antigravityHostOverride string
)
