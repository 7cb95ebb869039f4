package json

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
)

type pluginDTO struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Path        string `json:"path"`
}

// CatalogRepository implements the catalog.Repository interface using JSON file storage
type CatalogRepository struct {
	file *listFile[pluginDTO]
}

// NewCatalogRepository creates a catalog repository stored in dataDir/plugins.json
func NewCatalogRepository(dataDir string) (*CatalogRepository, error) {
	file, err := newListFile[pluginDTO](dataDir, consts.CatalogFilename)
	if err != nil {
		return nil, err
	}
	return &CatalogRepository{file: file}, nil
}

// Path returns the catalog file location.
func (r *CatalogRepository) Path() string {
	return r.file.path
}

// Load returns the stored catalog. A missing file is an empty catalog.
func (r *CatalogRepository) Load(ctx context.Context) ([]catalog.Plugin, error) {
	dtos, err := r.file.load()
	if errors.Is(err, fs.ErrNotExist) {
		return []catalog.Plugin{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin catalog: %w", err)
	}

	plugins := make([]catalog.Plugin, 0, len(dtos))
	for _, dto := range dtos {
		plugins = append(plugins, catalog.Plugin(dto))
	}
	return plugins, nil
}

// Replace backs up the stored catalog and writes plugins in its place.
func (r *CatalogRepository) Replace(ctx context.Context, plugins []catalog.Plugin) (snapshot.Change, error) {
	dtos := make([]pluginDTO, 0, len(plugins))
	for _, p := range plugins {
		dtos = append(dtos, pluginDTO(p))
	}
	return r.file.replace(dtos)
}
