package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"docshelf/internal/domain"
)

// Config holds all configuration for the document library.
type Config struct {
	Library  LibraryConfig  `yaml:"library"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Index    IndexConfig    `yaml:"index"`
	Retrieve RetrieveConfig `yaml:"retrieve"`
	Answer   AnswerConfig   `yaml:"answer"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LibraryConfig locates the persistent store.
type LibraryConfig struct {
	// Path overrides the derived store location when set.
	Path    string `yaml:"path"`
	Backend string `yaml:"backend" validate:"oneof=bolt json memory"`
}

// ChunkingConfig controls how documents are split into passages.
type ChunkingConfig struct {
	Size     int `yaml:"size" validate:"min=1"`
	Overlap  int `yaml:"overlap" validate:"min=0,ltfield=Size"`
	MinChunk int `yaml:"min_chunk" validate:"min=0"`
}

// IndexConfig controls text analysis.
type IndexConfig struct {
	Stemming bool `yaml:"stemming"`
	// RawTF scores with raw term counts instead of log-scaled ones.
	RawTF bool `yaml:"raw_tf"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int     `yaml:"top_k" validate:"min=1"`
	BM25K1          float64 `yaml:"bm25_k1" validate:"gte=0"`
	BM25B           float64 `yaml:"bm25_b" validate:"gte=0,lte=1"`
	BlendWeight     float64 `yaml:"blend_weight" validate:"gte=0,lte=1"`
	MMRLambda       float64 `yaml:"mmr_lambda" validate:"gte=0,lte=1"`
	DedupJaccard    float64 `yaml:"dedup_jaccard" validate:"gte=0,lte=1"`
	Expansion       bool    `yaml:"expansion"`
	CacheSize       int     `yaml:"cache_size" validate:"min=0"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" validate:"min=0"`
}

// AnswerConfig selects the generation model. An empty provider keeps
// answers extractive.
type AnswerConfig struct {
	Provider     string `yaml:"provider" validate:"omitempty,oneof=gemini claude anthropic none"`
	Model        string `yaml:"model"`
	APIKeyEnv    string `yaml:"api_key_env"`
	PromptBudget int    `yaml:"prompt_budget" validate:"min=1"`
}

// IngestConfig holds file walking configuration. Empty pattern lists fall
// back to the walker defaults.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Backend: "bolt",
		},
		Chunking: ChunkingConfig{
			Size:     800,
			Overlap:  120,
			MinChunk: 0,
		},
		Index: IndexConfig{
			Stemming: true,
			RawTF:    false,
		},
		Retrieve: RetrieveConfig{
			TopK:            5,
			BM25K1:          1.2,
			BM25B:           0.75,
			BlendWeight:     0.5,
			MMRLambda:       0.7,
			DedupJaccard:    0.9,
			Expansion:       false,
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
		Answer: AnswerConfig{
			Provider:     "",
			PromptBudget: 6000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks field constraints and the overlap/size relation.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}

// APIKey resolves the answer model's API key from the environment. The
// variable name defaults per provider when api_key_env is not set.
func (a AnswerConfig) APIKey() string {
	env := a.APIKeyEnv
	if env == "" {
		switch a.Provider {
		case "gemini":
			env = "GEMINI_API_KEY"
		case "claude", "anthropic":
			env = "ANTHROPIC_API_KEY"
		default:
			return ""
		}
	}
	return os.Getenv(env)
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; an invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// docshelf.yaml, then .docshelf/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docshelf.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docshelf", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StorePath returns the library store location for a directory, honoring
// an explicit library.path override.
func (c *Config) StorePath(dir string) string {
	if c.Library.Path != "" {
		return c.Library.Path
	}
	name := "library.db"
	if c.Library.Backend == "json" {
		name = "library.json"
	}
	return filepath.Join(dir, ".docshelf", name)
}

// EnsureStateDir ensures the .docshelf directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docshelf"), 0755)
}
