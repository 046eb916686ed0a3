// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geochat-tui/internal/model"
)

// isolate points HOME at a temp dir and clears the GEOCHAT_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"GEOCHAT_BACKEND_URL", "GEOCHAT_MODE", "GEOCHAT_TILE_URL",
		"GEOCHAT_LOG_LEVEL", "GEOCHAT_SEED",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.ModeGeneration, cfg.Mode())
	assert.Equal(t, DefaultGreeting, cfg.Chat.Greeting)
	assert.Equal(t, 60*time.Second, cfg.Timeout())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOMLOverridesOnlyPresentKeys(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".geochat")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[backend]
url = "https://chat.example.org/"

[chat]
default_mode = "map"

[ui]
show_query = false
`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.org/", cfg.Backend.URL)
	assert.Equal(t, 60, cfg.Backend.TimeoutSecs)
	assert.Equal(t, model.ModeMapping, cfg.Mode())
	assert.False(t, cfg.UI.ShowQuery)
	assert.True(t, cfg.UI.MapPane)
}

func TestLoad_JSONFallback(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".geochat")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"map": {"seed": 42, "default_zoom": 5}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Map.Seed)
	assert.Equal(t, 5, cfg.Map.DefaultZoom)
	assert.Equal(t, 19, cfg.Map.MaxZoom)
}

func TestLoad_InvalidFileReturnsDefaults(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".geochat")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[backend\n"), 0600))

	cfg, err := Load()
	require.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GEOCHAT_BACKEND_URL", "http://10.0.0.2:9000/")
	t.Setenv("GEOCHAT_MODE", "retrieval")
	t.Setenv("GEOCHAT_TILE_URL", "https://tiles.example.org/{z}/{x}/{y}.png")
	t.Setenv("GEOCHAT_LOG_LEVEL", "debug")
	t.Setenv("GEOCHAT_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:9000/", cfg.Backend.URL)
	assert.Equal(t, model.ModeRetrieval, cfg.Mode())
	assert.Equal(t, "https://tiles.example.org/{z}/{x}/{y}.png", cfg.Map.TileURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int64(7), cfg.Map.Seed)
}

func TestApplyEnvOverrides_BadSeedIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("GEOCHAT_SEED", "soon")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Zero(t, cfg.Map.Seed)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "ftp://example.org"
	cfg.Map.TileURL = "https://tiles.example.org/{z}.png"
	cfg.Map.DefaultLat = 95
	cfg.Chat.DefaultMode = "poetry"
	cfg.UI.Theme = "neon"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))

	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, f := range []string{
		"backend.url", "map.tile_url", "map.default_lat",
		"chat.default_mode", "ui.theme", "log.level",
	} {
		assert.True(t, fields[f], "expected error for %s", f)
	}
}

func TestValidate_DefaultZoomAboveMax(t *testing.T) {
	cfg := Default()
	cfg.Map.MaxZoom = 10
	cfg.Map.DefaultZoom = 12
	assert.ErrorContains(t, cfg.Validate(), "map.default_zoom")
}

func TestSaveAndLoadFromPath(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg := Default()
	cfg.Backend.URL = "https://saved.example.org/"
	cfg.Map.Seed = 99

	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(cfg, tomlPath))
	loaded, err := LoadFromPath(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	info, err := os.Stat(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, SaveJSON(cfg, jsonPath))
	loaded, err = LoadFromPath(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGet_DotNotation(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("backend.url")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/", v)

	v, err = cfg.Get("MAP.default_zoom")
	require.NoError(t, err)
	assert.Equal(t, 13, v)

	_, err = cfg.Get("backend.url.host")
	assert.ErrorContains(t, err, "not a section")

	_, err = cfg.Get("nope")
	assert.ErrorContains(t, err, "unknown field")

	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestPathsDefaultUnderConfigDir(t *testing.T) {
	home := isolate(t)
	cfg := Default()

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".geochat", "geochat.log"), logPath)

	cfg.Storage.ArchivePath = "/tmp/elsewhere.db"
	archive, err := cfg.ArchivePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere.db", archive)
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 90; i++ {
		wg.Add(1)
		switch i % 3 {
		case 0:
			go func() {
				defer wg.Done()
				if Global() == nil {
					t.Error("Global() returned nil")
				}
			}()
		case 1:
			go func() {
				defer wg.Done()
				c := Default()
				c.Chat.Greeting = "concurrent"
				SetGlobal(c)
			}()
		default:
			go func() {
				defer wg.Done()
				_ = ReloadGlobal()
			}()
		}
	}
	wg.Wait()

	require.NotNil(t, Global())
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	_ = Global()

	custom := Default()
	custom.Chat.Greeting = "custom greeting"
	SetGlobal(custom)

	assert.Equal(t, "custom greeting", Global().Chat.Greeting)
}
