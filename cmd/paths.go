package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
	"github.com/spf13/viper"
)

const appDirName = "moodscan"

// getDataDir returns the data directory holding the corpus, the plugin catalog,
// module definitions and logs. An explicit --data-dir, then MOODSCAN_DATA_DIR, then
// the data_dir config key take precedence over the per-OS default, which follows
// the XDG Base Directory specification on Linux/Unix.
func getDataDir() (string, error) {
	baseDir := dataDirFlag
	if baseDir == "" {
		baseDir = os.Getenv(dataDirEnvVar)
	}
	if baseDir == "" {
		baseDir = viper.GetString("data_dir")
	}

	if baseDir == "" {
		var err error
		baseDir, err = defaultDataDir()
		if err != nil {
			return "", err
		}
	}

	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(baseDir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return baseDir, nil
}

func defaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		// Windows: %LOCALAPPDATA%\moodscan
		baseDir := os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			baseDir = os.Getenv("APPDATA")
		}
		if baseDir == "" {
			return "", fmt.Errorf("could not determine Windows data directory")
		}
		return filepath.Join(baseDir, appDirName), nil

	case "darwin":
		// macOS: ~/Library/Application Support/moodscan
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(homeDir, "Library", "Application Support", appDirName), nil

	default:
		// Linux/Unix: $XDG_DATA_HOME/moodscan > ~/.local/share/moodscan
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return filepath.Join(xdgDataHome, appDirName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".local", "share", appDirName), nil
	}
}

// getLogsDir returns the directory diagnostic fault logs are written to.
func getLogsDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}
