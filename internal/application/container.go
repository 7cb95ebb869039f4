package application

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	refreshapp "github.com/khanhnv2901/moodscan/internal/application/refresh"
	scanapp "github.com/khanhnv2901/moodscan/internal/application/scan"
	"github.com/khanhnv2901/moodscan/internal/checker"
	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/module"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
	"github.com/khanhnv2901/moodscan/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/moodscan/internal/infrastructure/source"
	"go.uber.org/zap"
)

// Sources points the refresh service at the upstream data.
type Sources struct {
	AdvisoriesURL string
	PluginsAPIURL string
	RateLimit     int
	Timeout       time.Duration
}

// Container holds all application services and repositories
// This is a simple dependency injection container
type Container struct {
	// Repositories
	CorpusRepo   vulnerability.Repository
	CatalogRepo  catalog.Repository
	ResultWriter *json.ResultWriter

	// Services
	Registry       *module.Registry
	RefreshService *refreshapp.Service

	ModulesDir string
	logger     *zap.SugaredLogger
}

// NewContainer creates a new application service container
func NewContainer(dataDir string, sources Sources, logger *zap.SugaredLogger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	// Initialize repositories
	corpusRepo, err := json.NewCorpusRepository(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create corpus repository: %w", err)
	}

	catalogRepo, err := json.NewCatalogRepository(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog repository: %w", err)
	}

	if sources.Timeout <= 0 {
		sources.Timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: sources.Timeout}

	// Initialize services
	modulesDir := filepath.Join(dataDir, "modules")
	registry := module.NewRegistry(logger, checker.BuiltinSource(), checker.NewDirectorySource(modulesDir))
	refreshService := refreshapp.NewService(
		corpusRepo,
		catalogRepo,
		source.NewAdvisoryScraper(client, sources.AdvisoriesURL, sources.RateLimit, logger),
		source.NewPluginFetcher(client, sources.PluginsAPIURL, sources.RateLimit, logger),
		logger,
	)

	return &Container{
		CorpusRepo:     corpusRepo,
		CatalogRepo:    catalogRepo,
		ResultWriter:   json.NewResultWriter(),
		Registry:       registry,
		RefreshService: refreshService,
		ModulesDir:     modulesDir,
		logger:         logger,
	}, nil
}

// NewScanOrchestrator wires a scan orchestrator around the given platform probes.
func (c *Container) NewScanOrchestrator(platform scanapp.Platform) *scanapp.Orchestrator {
	return scanapp.NewOrchestrator(platform, c.CorpusRepo, c.CatalogRepo, c.Registry, c.ResultWriter, c.logger)
}
