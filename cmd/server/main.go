// Command server runs the multi-protocol reverse proxy: it loads
// configuration, opens both account pools, and serves the OpenAI, Gemini
// and Claude dialect endpoints over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/x161880/antigravity2api/internal/account"
	"github.com/x161880/antigravity2api/internal/api"
	"github.com/x161880/antigravity2api/internal/auth"
	"github.com/x161880/antigravity2api/internal/config"
	"github.com/x161880/antigravity2api/internal/constant"
	"github.com/x161880/antigravity2api/internal/convert"
	"github.com/x161880/antigravity2api/internal/logging"
	"github.com/x161880/antigravity2api/internal/signature"
	"github.com/x161880/antigravity2api/internal/upstream"
	"github.com/x161880/antigravity2api/internal/watcher"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	loginPool := flag.String("login", "", "run the interactive OAuth flow for a pool (\"antigravity\" or \"cli\") instead of serving")
	flag.Parse()

	logging.Setup(false)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Debug)

	if *loginPool != "" {
		if err := runLogin(cfg, *loginPool); err != nil {
			log.Fatalf("login: %v", err)
		}
		return
	}

	if err := run(cfg, *configPath); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(cfg *config.Config, configPath string) error {
	passphrase := accountPassphrase()

	httpClient, err := upstream.NewClient(cfg.ProxyURL, time.Duration(cfg.RequestTimeoutSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("build http client: %w", err)
	}
	streamHTTPClient, err := upstream.NewClient(cfg.ProxyURL, 0)
	if err != nil {
		return fmt.Errorf("build streaming http client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	antigravityStore := account.NewStore(filepath.Join(cfg.AuthDir, "antigravity.json"), passphrase)
	antigravityMgr, err := account.NewManager(ctx, account.ManagerConfig{
		Pool:              constant.PoolAntigravity,
		ClientID:          cfg.Antigravity.ClientID,
		ClientSecret:      cfg.Antigravity.ClientSecret,
		CodeAssistBaseURL: constant.HostAntigravitySandbox,
		UserAgent:         constant.UserAgentAntigravity,
		RequireProjectID:  true,
	}, antigravityStore, httpClient, cfg.Rotation, passphrase)
	if err != nil {
		return fmt.Errorf("antigravity account manager: %w", err)
	}

	cliStore := account.NewStore(filepath.Join(cfg.AuthDir, "cli.json"), passphrase)
	cliMgr, err := account.NewManager(ctx, account.ManagerConfig{
		Pool:              constant.PoolCLI,
		ClientID:          cfg.CLI.ClientID,
		ClientSecret:      cfg.CLI.ClientSecret,
		CodeAssistBaseURL: constant.HostCLIUpstream,
		UserAgent:         constant.UserAgentCLI,
		RequireProjectID:  false,
	}, cliStore, httpClient, cfg.Rotation, passphrase)
	if err != nil {
		return fmt.Errorf("cli account manager: %w", err)
	}

	deps := &api.Deps{
		Config:             cfg,
		AntigravityManager: antigravityMgr,
		CLIManager:         cliMgr,
		SignatureCache:     signature.New(cfg.Signature),
		Tools:              convert.NewToolNameRegistry(),
		HTTPClient:         httpClient,
		StreamHTTPClient:   streamHTTPClient,
		RequestLogger:      logging.NewRequestLogger(cfg.RequestLog, filepath.Join(cfg.AuthDir, "..", "request-logs")),
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	fw, err := watcher.New(configPath, map[string]watcher.Reloadable{
		antigravityStore.Path(): antigravityMgr,
		cliStore.Path():         cliMgr,
	}, config.LoadConfig, func(reloaded *config.Config) { deps.Config = reloaded })
	if err != nil {
		log.Warnf("watcher: disabled: %v", err)
	} else if err := fw.Start(watchCtx); err != nil {
		log.Warnf("watcher: failed to start: %v", err)
	}

	router := api.NewRouter(deps)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-stop:
		log.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// runLogin drives the interactive OAuth web flow for one pool and appends
// the resulting account to that pool's store (spec's supplemented "cmd
// login" feature; the HTTP admin panel that would otherwise drive this is
// out of scope).
func runLogin(cfg *config.Config, pool string) error {
	passphrase := accountPassphrase()

	var clientCfg config.OAuthClientConfig
	var storePath string
	switch pool {
	case string(constant.PoolAntigravity):
		clientCfg = cfg.Antigravity
		storePath = filepath.Join(cfg.AuthDir, "antigravity.json")
	case string(constant.PoolCLI):
		clientCfg = cfg.CLI
		storePath = filepath.Join(cfg.AuthDir, "cli.json")
	default:
		return fmt.Errorf("unknown pool %q (expected %q or %q)", pool, constant.PoolAntigravity, constant.PoolCLI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	token, email, err := auth.GetAuthenticatedClient(ctx, clientCfg)
	if err != nil {
		return fmt.Errorf("oauth flow: %w", err)
	}

	store := account.NewStore(storePath, passphrase)
	mgr, err := account.NewManager(ctx, account.ManagerConfig{}, store, http.DefaultClient, cfg.Rotation, passphrase)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if _, err := mgr.AddAccount(ctx, token, email); err != nil {
		return fmt.Errorf("add account: %w", err)
	}

	log.Infof("added %s account for %s", pool, email)
	return nil
}

func accountPassphrase() string {
	if v := os.Getenv("ACCOUNT_STORE_PASSPHRASE"); v != "" {
		return v
	}
	return "antigravity2api-default-passphrase"
}
