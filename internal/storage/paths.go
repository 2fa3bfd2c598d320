// Package storage provides persistent storage for engine settings, game
// statistics and the opening book table.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chesscore"

// HomeEnv overrides the data directory when set.
const HomeEnv = "CHESSCORE_HOME"

// GetDataDir returns the data directory, creating it if needed:
// $CHESSCORE_HOME when set, otherwise the platform location
// (~/Library/Application Support, %APPDATA% or $XDG_DATA_HOME) plus "chesscore".
func GetDataDir() (string, error) {
	dir := os.Getenv(HomeEnv)
	if dir == "" {
		base, err := platformDataDir()
		if err != nil {
			return "", fmt.Errorf("locate data directory: %w", err)
		}
		dir = filepath.Join(base, appName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func platformDataDir() (string, error) {
	env, fallback := "XDG_DATA_HOME", []string{".local", "share"}
	switch runtime.GOOS {
	case "darwin":
		env, fallback = "", []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	}

	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// GetDatabaseDir returns the badger database directory inside the data
// directory.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", err
	}
	return dbDir, nil
}
