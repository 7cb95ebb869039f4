package json

import (
	"context"
	"testing"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
)

func TestCatalogRepositoryMissingIsEmpty(t *testing.T) {
	repo, err := NewCatalogRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewCatalogRepository: %v", err)
	}

	plugins, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if plugins == nil || len(plugins) != 0 {
		t.Fatalf("expected empty catalog, got %#v", plugins)
	}
}

func TestCatalogRepositoryReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	repo, err := NewCatalogRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewCatalogRepository: %v", err)
	}

	p, ok := catalog.NewPlugin(7, "block", "Configurable Reports", "Reports", catalog.PluginDirectoryURL+"block_configurable_reports")
	if !ok {
		t.Fatal("block type should have an install path")
	}

	change, err := repo.Replace(ctx, []catalog.Plugin{p})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if change.Added() != 1 {
		t.Fatalf("expected one added plugin, got %+v", change)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != p {
		t.Fatalf("unexpected catalog: %+v", loaded)
	}
}
