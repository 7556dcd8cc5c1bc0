// Package where resolves application paths on every supported platform.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/tilawa-cli/tilawa/constant"
	"github.com/tilawa-cli/tilawa/filesystem"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "TILAWA_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config returns the configuration directory, honouring TILAWA_CONFIG_PATH.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Tilawa))
}

// Cache returns the cache directory, falling back to ./cache when the OS has none.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Tilawa))
}

// Logs returns the directory holding daily log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Sources returns the directory scanned for custom provider definitions (*.toml).
func Sources() string {
	return ensureDir(filepath.Join(Config(), "sources"))
}

// History returns the file holding the last played recitation.
func History() string {
	return filepath.Join(Cache(), "history.json")
}

// Temp returns a scratch directory for mpv IPC sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Tilawa))
}
