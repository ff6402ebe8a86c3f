package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "adm"

// GetAppDir returns the per-user application directory, following each
// platform's convention.
func GetAppDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, appDirName)
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", appDirName)
	case "linux":
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, appDirName)
	default:
		configDir, _ := os.UserConfigDir()
		return filepath.Join(configDir, appDirName)
	}
}

// GetDataDir returns the directory for state files (history database).
func GetDataDir() string {
	return filepath.Join(GetAppDir(), "data")
}

// GetLogsDir returns the directory for debug logs.
func GetLogsDir() string {
	return filepath.Join(GetAppDir(), "logs")
}

// EnsureDirs creates all required directories.
func EnsureDirs() error {
	for _, dir := range []string{GetAppDir(), GetDataDir(), GetLogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
