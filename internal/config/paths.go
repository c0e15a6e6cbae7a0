package config

import (
	"os"
	"path/filepath"
)

// GetGlobalDir returns ~/.anticipate. It is a variable so tests can
// override it.
var GetGlobalDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LocalDir), nil
}

// ResolveDataDir picks the data directory. First match wins:
//  1. explicit (data.dir from flag, env or file)
//  2. ./.anticipate when it exists
//  3. $XDG_DATA_HOME/anticipate
//  4. ~/.anticipate
func ResolveDataDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if info, err := os.Stat(LocalDir); err == nil && info.IsDir() {
		return LocalDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "anticipate")
	}
	dir, err := GetGlobalDir()
	if err != nil {
		return LocalDir
	}
	return dir
}
