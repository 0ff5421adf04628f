package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/halyard-labs/driftsync/internal/adapters/driven/converter/soffice"
	geminiembed "github.com/halyard-labs/driftsync/internal/adapters/driven/embedding/gemini"
	openaiembed "github.com/halyard-labs/driftsync/internal/adapters/driven/embedding/openai"
	geminiextract "github.com/halyard-labs/driftsync/internal/adapters/driven/extraction/gemini"
	"github.com/halyard-labs/driftsync/internal/adapters/driven/storage/sqlite"
	"github.com/halyard-labs/driftsync/internal/adapters/driven/vectorstore/qdrant"
	"github.com/halyard-labs/driftsync/internal/config"
	"github.com/halyard-labs/driftsync/internal/connectors/graph"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/core/services"
	"github.com/halyard-labs/driftsync/internal/logger"
	"github.com/halyard-labs/driftsync/internal/transformers"
	"github.com/halyard-labs/driftsync/internal/transformers/pdf"
	"github.com/halyard-labs/driftsync/internal/transformers/record"
	"github.com/halyard-labs/driftsync/internal/transformers/slides"
)

// appConfig is loaded once on first use.
var appConfig *config.Config

// closers collects everything Shutdown must release.
var closers []io.Closer

// loadAppConfig loads and caches the configuration.
func loadAppConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	appConfig = cfg
	return cfg, nil
}

// ensureRunStore builds the SQLite run store when not already set.
func ensureRunStore() error {
	if runStore != nil {
		return nil
	}
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	runStore = store
	closers = append(closers, store)
	return nil
}

// ensureRunner wires the full ingestion stack when not already set.
func ensureRunner(ctx context.Context) error {
	if pipelineRunner != nil {
		return nil
	}
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := ensureRunStore(); err != nil {
		return err
	}

	source, err := graph.New(ctx, graph.Config{
		TenantID:          cfg.Graph.TenantID,
		ClientID:          cfg.Graph.ClientID,
		ClientSecret:      cfg.Graph.ClientSecret,
		DriveID:           cfg.Graph.DriveID,
		RequestsPerSecond: cfg.Graph.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("creating graph client: %w", err)
	}

	store, err := qdrant.New(qdrant.Config{URL: cfg.Qdrant.URL, APIKey: cfg.Qdrant.APIKey})
	if err != nil {
		return err
	}
	closers = append(closers, store)

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, embedder)

	extractor, err := geminiextract.New(geminiextract.Config{APIKey: cfg.Embedding.APIKey})
	if err != nil {
		return fmt.Errorf("creating extractor: %w", err)
	}

	if err := soffice.CheckAvailable(); err != nil {
		logger.Warn("Slide conversion unavailable: %v", err)
	}

	registry := transformers.NewRegistry()
	registry.Register(record.NewRegulation())
	registry.Register(record.NewCase())
	registry.Register(pdf.NewProcedure(extractor))
	registry.Register(pdf.NewPages(extractor))
	registry.Register(slides.New(soffice.New(), extractor))

	pipelineRunner = services.NewOrchestrator(
		source, store, embedder, registry, runStore, cfg.DomainPipelines())
	return nil
}

// ensureScheduler wires the scheduler on top of the runner.
func ensureScheduler(ctx context.Context) error {
	if pipelineScheduler != nil {
		return nil
	}
	if err := ensureRunner(ctx); err != nil {
		return err
	}
	pipelineScheduler = services.NewIntervalScheduler(pipelineRunner, runStore)
	return nil
}

// ensureRetrieval wires the search stack. It does not need the drive
// connection, only the store and embedder.
func ensureRetrieval() error {
	if retrievalService != nil {
		return nil
	}
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	if cfg.Qdrant.URL == "" {
		return fmt.Errorf("qdrant url is required")
	}
	if err := ensureRunStore(); err != nil {
		return err
	}

	store, err := qdrant.New(qdrant.Config{URL: cfg.Qdrant.URL, APIKey: cfg.Qdrant.APIKey})
	if err != nil {
		return err
	}
	closers = append(closers, store)

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, embedder)

	collections := make([]string, 0, len(cfg.Pipelines))
	for _, p := range cfg.Pipelines {
		collections = append(collections, p.Collection)
	}

	retrievalService = services.NewRetrievalEngine(store, embedder, runStore, collections)
	return nil
}

// buildEmbedder selects the embedding provider from configuration.
func buildEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "", "gemini":
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// Shutdown releases everything the wiring opened.
func Shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Warn("Close failed: %v", err)
		}
	}
	closers = nil
}
