package api

import (
	"net/http"

	"github.com/x161880/antigravity2api/internal/account"
	"github.com/x161880/antigravity2api/internal/config"
	"github.com/x161880/antigravity2api/internal/convert"
	"github.com/x161880/antigravity2api/internal/logging"
	"github.com/x161880/antigravity2api/internal/signature"
)

// Deps bundles every shared service a handler needs: the two Account
// Managers, the process-wide signature cache and tool-name registry, the
// outbound HTTP client, and the resolved configuration (spec §2's
// dependency graph, injected rather than reached for as globals per §9).
type Deps struct {
	Config             *config.Config
	AntigravityManager *account.Manager
	CLIManager         *account.Manager
	SignatureCache     *signature.Cache
	Tools              *convert.ToolNameRegistry
	HTTPClient         *http.Client
	StreamHTTPClient   *http.Client
	RequestLogger      *logging.RequestLogger
}

// managerFor picks the Account Manager for a request, based on whether the
// route is under the /cli prefix.
func (d *Deps) managerFor(cliPool bool) *account.Manager {
	if cliPool {
		return d.CLIManager
	}
	return d.AntigravityManager
}

func (d *Deps) hostFor(cliPool bool) (host, userAgent string) {
	if cliPool {
		if cliHostOverride != "" {
			return cliHostOverride, cliUserAgent
		}
		return cliHost, cliUserAgent
	}
	if antigravityHostOverride != "" {
		return antigravityHostOverride, antigravityUserAgent
	}
	return antigravityHost, antigravityUserAgent
}
