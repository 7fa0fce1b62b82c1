// Package config resolves xpense configuration from viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// memoryDatabase is the SQLite name for a database that lives only in memory.
const memoryDatabase = ":memory:"

// ExpandPath expands $VAR references and a leading ~. A path that cannot be
// expanded, such as ~other/x, comes back unchanged apart from its variables.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)

	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !os.IsPathSeparator(rest[0])) {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// resolveDatabasePath applies the default and expands the configured database
// path. The in-memory name is passed through.
func resolveDatabasePath(raw string) string {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return ExpandPath(DefaultDatabasePath)
	case memoryDatabase:
		return raw
	}
	return ExpandPath(raw)
}

// resolveDir expands dir, defaulting to the working directory.
func resolveDir(dir string) string {
	if dir = ExpandPath(strings.TrimSpace(dir)); dir == "" {
		return "."
	}
	return dir
}
