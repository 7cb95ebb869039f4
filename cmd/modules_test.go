package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestModulesListShowsBuiltinAndDefinitions(t *testing.T) {
	dataDir := t.TempDir()
	modulesDir := filepath.Join(dataDir, "modules")
	if err := os.MkdirAll(modulesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	def := "name: legacy_filter_rce\nenabled: false\ncommand: /bin/true\n"
	if err := os.WriteFile(filepath.Join(modulesDir, "legacy.yaml"), []byte(def), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(t, "modules", "list", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("modules list: %v", err)
	}

	for _, want := range []string{"open_self_registration", "guest_access_enabled", "legacy_filter_rce", "disabled", modulesDir} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
