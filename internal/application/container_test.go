package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewContainerWiresServices(t *testing.T) {
	dataDir := t.TempDir()
	c, err := NewContainer(dataDir, Sources{}, nil)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	if c.CorpusRepo == nil || c.CatalogRepo == nil || c.ResultWriter == nil || c.Registry == nil || c.RefreshService == nil {
		t.Fatalf("container has unset services: %+v", c)
	}
	if c.ModulesDir != filepath.Join(dataDir, "modules") {
		t.Fatalf("unexpected modules dir %q", c.ModulesDir)
	}

	plugins, err := c.CatalogRepo.Load(context.Background())
	if err != nil || len(plugins) != 0 {
		t.Fatalf("fresh data dir should have an empty catalog, got %v, %v", plugins, err)
	}
}

func TestContainerRegistryIncludesDefinitions(t *testing.T) {
	dataDir := t.TempDir()
	c, err := NewContainer(dataDir, Sources{}, nil)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	builtin, errs := c.Registry.Discover()
	if len(errs) != 0 {
		t.Fatalf("unexpected load errors: %v", errs)
	}

	if err := os.MkdirAll(c.ModulesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	def := []byte("name: community_check\ncommand: /bin/true\n")
	if err := os.WriteFile(filepath.Join(c.ModulesDir, "community.yaml"), def, 0o644); err != nil {
		t.Fatalf("write definition: %v", err)
	}

	all, errs := c.Registry.Discover()
	if len(errs) != 0 {
		t.Fatalf("unexpected load errors: %v", errs)
	}
	if len(all) != len(builtin)+1 || all[len(all)-1].Name() != "community_check" {
		t.Fatalf("definition module not discovered after builtins")
	}
}

func TestNewContainerRequiresDataDir(t *testing.T) {
	if _, err := NewContainer("", Sources{}, nil); err == nil {
		t.Fatal("expected error for empty data dir")
	}
}
