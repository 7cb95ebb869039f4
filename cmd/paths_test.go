package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestGetDataDirDefault(t *testing.T) {
	t.Setenv(dataDirEnvVar, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	if runtime.GOOS == "windows" {
		t.Setenv("LOCALAPPDATA", home)
	}

	dataDir, err := getDataDir()
	if err != nil {
		t.Fatalf("getDataDir() failed: %v", err)
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
	if filepath.Base(dataDir) != appDirName {
		t.Errorf("Expected data directory to end with %q, got: %s", appDirName, dataDir)
	}

	switch runtime.GOOS {
	case "darwin":
		if !strings.Contains(dataDir, "Library") {
			t.Errorf("macOS: Expected path to contain Library, got: %s", dataDir)
		}
	case "windows":
	default: // Linux/Unix
		expected := filepath.Join(home, ".local", "share", appDirName)
		if dataDir != expected {
			t.Errorf("Linux: Expected %s, got: %s", expected, dataDir)
		}
	}
}

func TestGetDataDirXDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_DATA_HOME only applies on Linux/Unix")
	}
	t.Setenv(dataDirEnvVar, "")
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)

	dataDir, err := getDataDir()
	if err != nil {
		t.Fatalf("getDataDir() failed: %v", err)
	}
	if dataDir != filepath.Join(xdg, appDirName) {
		t.Fatalf("expected XDG location, got %s", dataDir)
	}
}

func TestGetDataDirPrecedence(t *testing.T) {
	t.Cleanup(func() {
		dataDirFlag = ""
		viper.Reset()
	})

	fromConfig := filepath.Join(t.TempDir(), "config")
	fromEnv := filepath.Join(t.TempDir(), "env")
	fromFlag := filepath.Join(t.TempDir(), "flag")

	viper.Set("data_dir", fromConfig)
	t.Setenv(dataDirEnvVar, "")
	if got, err := getDataDir(); err != nil || got != fromConfig {
		t.Fatalf("expected config data dir %s, got %s (%v)", fromConfig, got, err)
	}

	t.Setenv(dataDirEnvVar, fromEnv)
	if got, err := getDataDir(); err != nil || got != fromEnv {
		t.Fatalf("expected env data dir %s, got %s (%v)", fromEnv, got, err)
	}

	dataDirFlag = fromFlag
	if got, err := getDataDir(); err != nil || got != fromFlag {
		t.Fatalf("expected flag data dir %s, got %s (%v)", fromFlag, got, err)
	}

	for _, dir := range []string{fromConfig, fromEnv, fromFlag} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected %s to be created: %v", dir, err)
		}
	}
}

func TestGetLogsDir(t *testing.T) {
	if got := getLogsDir("/data"); got != filepath.Join("/data", "logs") {
		t.Fatalf("unexpected logs dir %s", got)
	}
}
