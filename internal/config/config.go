// Package config loads the TOML configuration file and environment
// secrets. Non-secret settings live in the TOML file; credentials come
// from the environment (a .env file is honoured when present).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// Config is the full application configuration.
type Config struct {
	Graph     GraphConfig      `toml:"graph"`
	Qdrant    QdrantConfig     `toml:"qdrant"`
	Embedding EmbeddingConfig  `toml:"embedding"`
	Storage   StorageConfig    `toml:"storage"`
	Search    SearchConfig     `toml:"search"`
	Admin     AdminConfig      `toml:"admin"`
	Pipelines []PipelineConfig `toml:"pipelines"`
}

// DefaultAdminAddr is where the serve process exposes its admin
// surface. Loopback only.
const DefaultAdminAddr = "127.0.0.1:8787"

// AdminConfig holds the settings of the scheduler admin surface.
type AdminConfig struct {
	// Addr is the listen address of the admin HTTP server started by
	// the serve command. Other commands use it to reach the running
	// scheduler.
	Addr string `toml:"addr"`
}

// GraphConfig holds the Microsoft Graph drive settings. Credentials are
// environment-only.
type GraphConfig struct {
	TenantID          string  `toml:"tenant_id"`
	ClientID          string  `toml:"client_id"`
	ClientSecret      string  `toml:"-"`
	DriveID           string  `toml:"drive_id"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// QdrantConfig holds the vector store connection settings.
type QdrantConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"-"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "gemini" or "openai".
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"-"`

	// Dimensions overrides the model's default dimension.
	Dimensions int `toml:"dimensions"`
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	// DataDir is where the run database lives. Empty means
	// ~/.driftsync/data.
	DataDir string `toml:"data_dir"`
}

// SearchConfig holds retrieval defaults.
type SearchConfig struct {
	MinScore float64 `toml:"min_score"`
	Limit    int     `toml:"limit"`
}

// PipelineConfig is the TOML shape of one pipeline definition.
type PipelineConfig struct {
	Name            string   `toml:"name"`
	FolderPath      string   `toml:"folder_path"`
	Collection      string   `toml:"collection"`
	Extensions      []string `toml:"extensions"`
	VectorSize      int      `toml:"vector_size"`
	BatchSize       int      `toml:"batch_size"`
	IntervalMinutes int      `toml:"interval_minutes"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "driftsync.toml"
	}
	return filepath.Join(home, ".driftsync", "config.toml")
}

// Load reads the configuration file at path and overlays environment
// secrets. A missing file yields the defaults; a .env file next to the
// working directory is loaded when present.
func Load(path string) (*Config, error) {
	// Best effort: absence of a .env file is the common case.
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// applyDefaults fills zero values, including the built-in pipeline set
// when none are configured.
func (c *Config) applyDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "gemini"
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = domain.DefaultSearchLimit
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = DefaultAdminAddr
	}
	if len(c.Pipelines) == 0 {
		c.Pipelines = DefaultPipelines()
	}
}

// applyEnv overlays secrets and connection overrides from the environment.
func (c *Config) applyEnv() {
	setIfPresent(&c.Graph.TenantID, "GRAPH_TENANT_ID")
	setIfPresent(&c.Graph.ClientID, "GRAPH_CLIENT_ID")
	setIfPresent(&c.Graph.ClientSecret, "GRAPH_CLIENT_SECRET")
	setIfPresent(&c.Graph.DriveID, "GRAPH_DRIVE_ID")
	setIfPresent(&c.Qdrant.URL, "QDRANT_URL")
	setIfPresent(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	switch c.Embedding.Provider {
	case "openai":
		setIfPresent(&c.Embedding.APIKey, "OPENAI_API_KEY")
	default:
		setIfPresent(&c.Embedding.APIKey, "GEMINI_API_KEY")
	}
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the settings needed for ingestion are present.
func (c *Config) Validate() error {
	if c.Graph.TenantID == "" || c.Graph.ClientID == "" || c.Graph.ClientSecret == "" {
		return fmt.Errorf("graph credentials are incomplete (tenant_id, client_id, GRAPH_CLIENT_SECRET)")
	}
	if c.Graph.DriveID == "" {
		return fmt.Errorf("graph drive_id is required")
	}
	if c.Qdrant.URL == "" {
		return fmt.Errorf("qdrant url is required")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding API key is required (GEMINI_API_KEY or OPENAI_API_KEY)")
	}
	for _, p := range c.Pipelines {
		if p.Name == "" || p.FolderPath == "" || p.Collection == "" {
			return fmt.Errorf("pipeline %q: name, folder_path and collection are required", p.Name)
		}
	}
	return nil
}

// DomainPipelines converts the configured pipelines to domain values.
func (c *Config) DomainPipelines() []domain.Pipeline {
	pipelines := make([]domain.Pipeline, 0, len(c.Pipelines))
	for _, p := range c.Pipelines {
		pipelines = append(pipelines, domain.Pipeline{
			Name:       p.Name,
			FolderPath: p.FolderPath,
			Collection: p.Collection,
			Extensions: p.Extensions,
			VectorSize: p.VectorSize,
			BatchSize:  p.BatchSize,
			Interval:   time.Duration(p.IntervalMinutes) * time.Minute,
		})
	}
	return pipelines
}

// DefaultPipelines is the built-in pipeline set covering the four
// content domains.
func DefaultPipelines() []PipelineConfig {
	return []PipelineConfig{
		{
			Name:       domain.PipelineRegulations,
			FolderPath: "AI/Regulations",
			Collection: "regulations",
			Extensions: []string{".json"},
			VectorSize: 768,
		},
		{
			Name:       domain.PipelineProcedures,
			FolderPath: "AI/SOP",
			Collection: "procedures",
			Extensions: []string{".pdf"},
			VectorSize: 768,
		},
		{
			Name:       domain.PipelineCases,
			FolderPath: "AI/Cases",
			Collection: "cases",
			Extensions: []string{".json"},
			VectorSize: 768,
		},
		{
			Name:       domain.PipelineDocuments,
			FolderPath: "AI/Documents",
			Collection: "documents",
			Extensions: []string{".pdf", ".ppt", ".pptx"},
			VectorSize: 768,
		},
	}
}
