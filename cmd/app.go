package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Yunitra/AnyDownloadManager/internal/config"
	"github.com/Yunitra/AnyDownloadManager/internal/engine"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/events"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/state"
	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// app bundles everything a command needs: settings, the event bus, the
// history store, and a wired engine.
type app struct {
	settings config.Settings
	bus      *events.Bus
	history  *state.History
	engine   *engine.Engine
}

func newApp() (*app, error) {
	if err := config.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("ensure app dirs: %w", err)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		// A broken settings file should not brick the tool; run on
		// defaults and say so.
		fmt.Printf("Warning: %v (using defaults)\n", err)
	}

	utils.ConfigureDebug(config.GetLogsDir())
	utils.CleanupLogs(settings.General.LogRetentionCount)

	history, err := state.OpenHistory(filepath.Join(config.GetDataDir(), "downloads.db"))
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	eng := engine.New(engine.Options{
		Bus:       bus,
		History:   history,
		UserAgent: settings.Network.UserAgent,
	})

	return &app{
		settings: settings,
		bus:      bus,
		history:  history,
		engine:   eng,
	}, nil
}

func (a *app) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
}

// destDir resolves the directory downloads go to: the command's flag, else
// the configured default, else the engine's OS fallback (empty string).
func (a *app) destDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return a.settings.General.DefaultDownloadDir
}

// threads resolves the worker count: the command's flag, else the configured
// default.
func (a *app) threads(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return a.settings.Network.DefaultThreads
}
