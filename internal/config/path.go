package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDirEnv overrides the default data directory when set.
const DataDirEnv = "WX_DATA_DIR"

const appDirName = "wx-storage"

// hostEnv is the slice of the host consulted when picking a data directory.
type hostEnv struct {
	getenv func(string) string
	home   func() (string, error)
	goos   string
}

// DefaultDataDir returns the data directory used when none is configured.
// WX_DATA_DIR wins, then XDG_DATA_HOME, then the per-user data location of
// the host OS. Without a home directory it falls back to ./data.
func DefaultDataDir() string {
	return dataDirFor(hostEnv{getenv: os.Getenv, home: os.UserHomeDir, goos: runtime.GOOS})
}

func dataDirFor(h hostEnv) string {
	if dir := h.getenv(DataDirEnv); dir != "" {
		return dir
	}
	if xdg := h.getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := h.home()
	if err != nil || home == "" {
		return filepath.Join(".", "data")
	}
	switch h.goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDirName)
	case "windows":
		if local := h.getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appDirName)
		}
		return filepath.Join(home, "AppData", "Local", appDirName)
	default:
		return filepath.Join(home, ".local", "share", appDirName)
	}
}
