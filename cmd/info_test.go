package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
)

func TestInfoCommand(t *testing.T) {
	dataDir := t.TempDir()

	output, err := executeCommand(t, "info", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("info command failed: %v", err)
	}

	expectedSections := []string{
		"moodscan System Information",
		"Platform:",
		"Data Locations:",
		"Data Directory:",
		"Vulnerability DB:",
		"Plugin Catalog:",
		"Modules Directory:",
		"Configuration File:",
		"moodscan update",
	}
	for _, section := range expectedSections {
		if !strings.Contains(output, section) {
			t.Errorf("Expected output to contain '%s', got:\n%s", section, output)
		}
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if !strings.Contains(output, expectedPlatform) {
		t.Errorf("Expected platform '%s' in output, got:\n%s", expectedPlatform, output)
	}
}

func TestInfoCommand_ExistingCorpus(t *testing.T) {
	dataDir := t.TempDir()
	corpus := filepath.Join(dataDir, consts.CorpusFilename)
	if err := os.WriteFile(corpus, []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}

	output, err := executeCommand(t, "info", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("info command failed: %v", err)
	}
	if !strings.Contains(output, corpus+" (exists)") {
		t.Errorf("expected corpus to be reported as existing, got:\n%s", output)
	}
	if strings.Contains(output, "moodscan update") {
		t.Errorf("did not expect an update hint, got:\n%s", output)
	}
}

func TestPresence(t *testing.T) {
	dir := t.TempDir()
	if got := presence(dir); got != "(exists)" {
		t.Errorf("presence(dir) = %q", got)
	}
	if got := presence(filepath.Join(dir, "missing")); got != "(not created yet)" {
		t.Errorf("presence(missing) = %q", got)
	}
}
