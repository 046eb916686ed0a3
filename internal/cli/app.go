// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/backend"
	"github.com/jeranaias/geochat-tui/internal/config"
	"github.com/jeranaias/geochat-tui/internal/controller"
	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/logging"
	"github.com/jeranaias/geochat-tui/internal/mapview"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/storage"
)

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// app holds the flags and the collaborators shared by all commands. The
// archive and client are created on first use.
type app struct {
	configPath string
	backendURL string
	mode       string
	logLevel   string
	noArchive  bool

	cfg     *config.Config
	log     *zap.Logger
	client  *backend.Client
	archive *storage.Archive
}

// setup loads the config and opens the log file. A broken default config
// file only warns; a file named with --config must load.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	if a.backendURL != "" {
		cfg.Backend.URL = a.backendURL
	}
	if a.mode != "" {
		mode, err := model.ParseMode(a.mode)
		if err != nil {
			return err
		}
		cfg.Chat.DefaultMode = string(mode)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	config.SetGlobal(cfg)

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Path: logPath})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("Warning:"), err)
		log = logging.Nop()
	}
	a.log = log.With(zap.String("cmd", cmd.Name()))
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		cfg, err := config.LoadFromPath(a.configPath)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", a.configPath, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, warningStyle.Render("Warning:"), err, "(using defaults)")
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
	}
	return cfg, nil
}

// watchedConfigPath returns the config file the TUI reloads, or "" when
// there is none on disk.
func (a *app) watchedConfigPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	for _, pathFn := range []func() (string, error){config.ConfigPathTOML, config.ConfigPathJSON} {
		if p, err := pathFn(); err == nil {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

func (a *app) close() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil && a.log != nil {
			a.log.Warn("close archive", zap.Error(err))
		}
		a.archive = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// =============================================================================
// COLLABORATORS
// =============================================================================

func (a *app) backendClient() *backend.Client {
	if a.client == nil {
		a.client = backend.NewClientWithConfig(&backend.ClientConfig{
			BaseURL:           a.cfg.Backend.URL,
			Timeout:           a.cfg.Timeout(),
			RequestsPerSecond: a.cfg.Backend.RequestsPerSecond,
			Burst:             a.cfg.Backend.Burst,
			Logger:            a.log,
		})
	}
	return a.client
}

// openArchive returns the local archive, or nil when it is disabled.
func (a *app) openArchive() (*storage.Archive, error) {
	if a.noArchive || !a.cfg.Storage.Enabled {
		return nil, nil
	}
	if a.archive != nil {
		return a.archive, nil
	}
	path, err := a.cfg.ArchivePath()
	if err != nil {
		return nil, err
	}
	archive, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	a.archive = archive
	return archive, nil
}

func (a *app) renderer() *mapview.Renderer {
	return mapview.NewRenderer(rendererOptions(a.cfg, a.log))
}

// rendererOptions maps the [map] config section onto renderer options.
func rendererOptions(cfg *config.Config, log *zap.Logger) mapview.Options {
	ro := mapview.DefaultOptions()
	ro.Initial = mapview.View{
		Center: geo.LatLng{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLon},
		Zoom:   cfg.Map.DefaultZoom,
	}
	ro.FeatureZoom = cfg.Map.DefaultZoom
	if cfg.Map.TileURL != "" {
		ro.Tiles.URLTemplate = cfg.Map.TileURL
	}
	if cfg.Map.MaxZoom > 0 {
		ro.Tiles.MaxZoom = cfg.Map.MaxZoom
	}
	if cfg.Map.Attribution != "" {
		ro.Tiles.Attribution = cfg.Map.Attribution
	}
	ro.Seed = cfg.Map.Seed
	ro.Logger = log
	return ro
}

func (a *app) newController() *controller.Controller {
	opts := controller.Options{
		Mode:     a.cfg.Mode(),
		Greeting: a.cfg.Chat.Greeting,
		Timeout:  a.cfg.Timeout(),
		Renderer: a.renderer(),
		Logger:   a.log,
	}
	archive, err := a.openArchive()
	if err != nil {
		a.log.Warn("archive unavailable", zap.Error(err))
	} else if archive != nil {
		opts.Archive = archive
	}
	return controller.New(a.backendClient(), opts)
}
