// Package watcher hot-reloads the account stores and configuration file
// without a restart, mirroring the teacher's fsnotify-driven config/auth
// watcher.
package watcher

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/x161880/antigravity2api/internal/config"
)

// Reloadable is the subset of *account.Manager the watcher needs.
type Reloadable interface {
	Reload() error
	UpdateRotationConfig(config.RotationConfig)
}

// Watcher watches the config file and both account-store files, reloading
// the affected Account Manager (or the rotation policy) on change.
type Watcher struct {
	fsw        *fsnotify.Watcher
	configPath string
	managers   map[string]Reloadable
	loadConfig func(string) (*config.Config, error)
	onConfig   func(*config.Config)
}

// New builds a Watcher for configPath plus one entry per account-store file
// path (keyed by that same path) to reload when it changes.
func New(configPath string, managers map[string]Reloadable, loadConfig func(string) (*config.Config, error), onConfig func(*config.Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, configPath: configPath, managers: managers, loadConfig: loadConfig, onConfig: onConfig}, nil
}

// Start begins watching every registered path's parent directory (fsnotify
// tracks directories more reliably across editors' atomic-rename saves than
// watching the file itself) and processes events until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := map[string]struct{}{filepath.Dir(w.configPath): {}}
	for path := range w.managers {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			log.Warnf("watcher: failed to watch %s: %v", dir, err)
		}
	}

	go func() {
		defer w.fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				w.handle(event)
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				log.Warnf("watcher: fsnotify error: %v", err)
			}
		}
	}()
	return nil
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	if event.Name == w.configPath {
		cfg, err := w.loadConfig(w.configPath)
		if err != nil {
			log.Warnf("watcher: reload config failed: %v", err)
			return
		}
		for _, mgr := range w.managers {
			mgr.UpdateRotationConfig(cfg.Rotation)
		}
		if w.onConfig != nil {
			w.onConfig(cfg)
		}
		log.Info("watcher: configuration reloaded")
		return
	}

	if mgr, ok := w.managers[event.Name]; ok {
		if err := mgr.Reload(); err != nil {
			log.Warnf("watcher: reload %s failed: %v", event.Name, err)
			return
		}
		log.Infof("watcher: account store %s reloaded", event.Name)
	}
}
