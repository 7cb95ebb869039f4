// Package refresh replaces the local corpus and plugin catalog with fresh
// downloads.
package refresh

import (
	"context"
	"fmt"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"go.uber.org/zap"
)

// AdvisorySource downloads the official advisories.
type AdvisorySource interface {
	Fetch(ctx context.Context, progress snapshot.ProgressFunc) ([]vulnerability.Record, error)
}

// PluginSource downloads the plugin catalog.
type PluginSource interface {
	Fetch(ctx context.Context, progress snapshot.ProgressFunc) ([]catalog.Plugin, error)
}

// Service handles the update use cases
type Service struct {
	corpusRepo  vulnerability.Repository
	catalogRepo catalog.Repository
	advisories  AdvisorySource
	plugins     PluginSource
	logger      *zap.SugaredLogger
}

// NewService creates a new refresh service
func NewService(
	corpusRepo vulnerability.Repository,
	catalogRepo catalog.Repository,
	advisories AdvisorySource,
	plugins PluginSource,
	logger *zap.SugaredLogger,
) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		corpusRepo:  corpusRepo,
		catalogRepo: catalogRepo,
		advisories:  advisories,
		plugins:     plugins,
		logger:      logger,
	}
}

// RefreshCorpus scrapes the advisories and replaces the stored corpus. A corpus
// that shrank is still written, but reported as a CorpusIntegrityError; the
// previous snapshot stays in the backup file.
func (s *Service) RefreshCorpus(ctx context.Context, progress snapshot.ProgressFunc) (snapshot.Change, error) {
	records, err := s.advisories.Fetch(ctx, progress)
	if err != nil {
		return snapshot.Change{}, fmt.Errorf("failed to scrape security advisories: %w", err)
	}
	s.logger.Debugw("security advisories scraped", "count", len(records))

	change, err := s.corpusRepo.Replace(ctx, records)
	if err != nil {
		return change, fmt.Errorf("failed to save vulnerability corpus: %w", err)
	}
	return change, s.verify("vulnerability corpus", change)
}

// RefreshCatalog downloads the plugin catalog and replaces the stored one under
// the same rules as RefreshCorpus.
func (s *Service) RefreshCatalog(ctx context.Context, progress snapshot.ProgressFunc) (snapshot.Change, error) {
	plugins, err := s.plugins.Fetch(ctx, progress)
	if err != nil {
		return snapshot.Change{}, fmt.Errorf("failed to retrieve plugin catalog: %w", err)
	}
	s.logger.Debugw("plugin catalog retrieved", "count", len(plugins))

	change, err := s.catalogRepo.Replace(ctx, plugins)
	if err != nil {
		return change, fmt.Errorf("failed to save plugin catalog: %w", err)
	}
	return change, s.verify("plugin catalog", change)
}

func (s *Service) verify(name string, change snapshot.Change) error {
	if !change.Shrunk() {
		return nil
	}
	s.logger.Warnw("refreshed data set shrank", "name", name, "before", change.Before, "after", change.After, "backup", change.Backup)
	return &sharedErrors.CorpusIntegrityError{
		Name:   name,
		Before: change.Before,
		After:  change.After,
		Backup: change.Backup,
	}
}
