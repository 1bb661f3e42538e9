package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// Config holds all configuration for the RAG service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Retry     RetryConfig     `yaml:"retry"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Generate  GenerateConfig  `yaml:"generate"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	StaticDir      string        `yaml:"static_dir"` // Served at / when set
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// ChunkConfig holds word-window chunking configuration.
type ChunkConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrieveConfig holds query-time configuration.
type RetrieveConfig struct {
	TopK             int           `yaml:"top_k"`             // Candidates fetched from the vector store
	TopN             int           `yaml:"top_n"`             // Chunks kept after reranking
	EmbedConcurrency int           `yaml:"embed_concurrency"`
	CallTimeout      time.Duration `yaml:"call_timeout"`      // Per remote call
	QueryCacheSize   int           `yaml:"query_cache_size"`  // Cached query embeddings; 0 disables
	QueryCacheTTL    time.Duration `yaml:"query_cache_ttl"`
}

// RetryConfig bounds retries of transient remote failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "gemini", "openai", "ollama", "hash"
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL        string `yaml:"base_url"`
	Dimension      int    `yaml:"dimension"`
	DocumentPrefix string `yaml:"document_prefix"`
	QueryPrefix    string `yaml:"query_prefix"`
}

// StoreConfig holds vector store configuration.
type StoreConfig struct {
	Provider string       `yaml:"provider"` // "bolt", "memory", "qdrant"
	Path     string       `yaml:"path"`
	Metric   string       `yaml:"metric"`
	Qdrant   QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds remote Qdrant configuration.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Collection string `yaml:"collection"`
	BatchSize  int    `yaml:"batch_size"`
}

// RerankConfig holds reranker configuration.
type RerankConfig struct {
	Provider  string `yaml:"provider"` // "cohere", "bm25"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// GenerateConfig holds answer generation configuration.
type GenerateConfig struct {
	Provider    string  `yaml:"provider"` // "gemini", "openai", "ollama"
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
}

// IngestConfig holds file selection for bulk ingestion.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			MaxUploadBytes: 32 << 20,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   120 * time.Second,
		},
		Chunk: ChunkConfig{
			Size:    200,
			Overlap: 20,
		},
		Retrieve: RetrieveConfig{
			TopK:             10,
			TopN:             3,
			EmbedConcurrency: 4,
			CallTimeout:      30 * time.Second,
			QueryCacheSize:   0,
			QueryCacheTTL:    10 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
		},
		Embedding: EmbeddingConfig{
			Provider:  "gemini",
			Model:     "text-embedding-004",
			APIKeyEnv: "GEMINI_API_KEY",
			Dimension: 768,
		},
		Store: StoreConfig{
			Provider: "bolt",
			Path:     filepath.Join(".minirag", "index.db"),
			Metric:   "cosine",
			Qdrant: QdrantConfig{
				URL:        "http://localhost:6333",
				APIKeyEnv:  "QDRANT_API_KEY",
				Collection: "mini-rag-index",
				BatchSize:  100,
			},
		},
		Rerank: RerankConfig{
			Provider:  "cohere",
			Model:     "rerank-english-v3.0",
			APIKeyEnv: "COHERE_API_KEY",
		},
		Generate: GenerateConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			APIKeyEnv:   "GEMINI_API_KEY",
			Temperature: 0.2,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md", "**/*.pdf", "**/*.docx", "**/*.xlsx"},
			Excludes: []string{"**/.git/**", "**/node_modules/**", "**/.minirag/**"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for minirag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "minirag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".minirag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 || c.Chunk.Overlap <= 0 {
		return fmt.Errorf("%w: chunk.size and chunk.overlap must be positive", domain.ErrInvalidConfig)
	}
	if c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("%w: chunk.overlap (%d) must be smaller than chunk.size (%d)", domain.ErrInvalidConfig, c.Chunk.Overlap, c.Chunk.Size)
	}
	if c.Retrieve.TopK <= 0 || c.Retrieve.TopN <= 0 {
		return fmt.Errorf("%w: retrieve.top_k and retrieve.top_n must be positive", domain.ErrInvalidConfig)
	}
	if c.Retrieve.TopN > c.Retrieve.TopK {
		return fmt.Errorf("%w: retrieve.top_n (%d) exceeds retrieve.top_k (%d)", domain.ErrInvalidConfig, c.Retrieve.TopN, c.Retrieve.TopK)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding.dimension must be positive", domain.ErrInvalidConfig)
	}
	if c.Store.Metric != "cosine" {
		return fmt.Errorf("%w: unsupported metric %q", domain.ErrInvalidConfig, c.Store.Metric)
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 10 {
		return fmt.Errorf("%w: retry.max_attempts must be 1-10, got %d", domain.ErrInvalidConfig, c.Retry.MaxAttempts)
	}

	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"embedding.provider", c.Embedding.Provider, []string{"gemini", "openai", "ollama", "hash"}},
		{"store.provider", c.Store.Provider, []string{"bolt", "memory", "qdrant"}},
		{"rerank.provider", c.Rerank.Provider, []string{"cohere", "bm25"}},
		{"generate.provider", c.Generate.Provider, []string{"gemini", "openai", "ollama"}},
	}
	for _, chk := range checks {
		if !contains(chk.allowed, chk.value) {
			return fmt.Errorf("%w: unknown %s %q", domain.ErrInvalidConfig, chk.field, chk.value)
		}
	}
	return nil
}

// IndexPath resolves the bolt index path relative to dir.
func (c *Config) IndexPath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// EnsureIndexDir ensures the directory holding the index file exists.
func (c *Config) EnsureIndexDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.IndexPath(dir)), 0755)
}

// applyEnv overrides file values with MINIRAG_* environment variables.
func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("MINIRAG_ADDR", c.Server.Addr)
	c.Server.StaticDir = getEnv("MINIRAG_STATIC_DIR", c.Server.StaticDir)
	c.Store.Provider = getEnv("MINIRAG_STORE", c.Store.Provider)
	c.Store.Path = getEnv("MINIRAG_STORE_PATH", c.Store.Path)
	c.Store.Qdrant.URL = getEnv("MINIRAG_QDRANT_URL", c.Store.Qdrant.URL)
	c.Embedding.Provider = getEnv("MINIRAG_EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.Model = getEnv("MINIRAG_EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.Dimension = getEnvInt("MINIRAG_EMBEDDING_DIMENSION", c.Embedding.Dimension)
	c.Rerank.Provider = getEnv("MINIRAG_RERANK_PROVIDER", c.Rerank.Provider)
	c.Generate.Provider = getEnv("MINIRAG_GENERATE_PROVIDER", c.Generate.Provider)
	c.Generate.Model = getEnv("MINIRAG_GENERATE_MODEL", c.Generate.Model)
	c.Retrieve.TopK = getEnvInt("MINIRAG_TOP_K", c.Retrieve.TopK)
	c.Retrieve.TopN = getEnvInt("MINIRAG_TOP_N", c.Retrieve.TopN)
	c.Retrieve.CallTimeout = getEnvDuration("MINIRAG_CALL_TIMEOUT", c.Retrieve.CallTimeout)
	c.Retry.MaxAttempts = getEnvInt("MINIRAG_MAX_ATTEMPTS", c.Retry.MaxAttempts)
	c.Logging.Level = getEnv("MINIRAG_LOG_LEVEL", c.Logging.Level)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
