package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Index configuration
	Index IndexConfig `mapstructure:"index"`

	// Graph configuration
	Graph GraphConfig `mapstructure:"graph"`

	// Search configuration
	Search SearchConfig `mapstructure:"search"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// EmbeddingConfig holds embedding provider and cache configuration
type EmbeddingConfig struct {
	Provider    string        `mapstructure:"provider"` // openai
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Dimensions  int           `mapstructure:"dimensions"`
	BatchSize   int           `mapstructure:"batch_size"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	RateLimit   float64       `mapstructure:"rate_limit"` // provider calls per second
	Concurrency int           `mapstructure:"concurrency"`
}

// IndexConfig holds vector index configuration
type IndexConfig struct {
	Backend    string `mapstructure:"backend"` // chroma, badger
	URL        string `mapstructure:"url"`     // chroma server URL
	Path       string `mapstructure:"path"`    // badger database path
	Collection string `mapstructure:"collection"`
}

// GraphConfig holds citation graph configuration
type GraphConfig struct {
	Damping              float64 `mapstructure:"damping"`
	MaxIterations        int     `mapstructure:"max_iterations"`
	ConvergenceThreshold float64 `mapstructure:"convergence_threshold"`
}

// SearchConfig holds hybrid search configuration
type SearchConfig struct {
	VectorWeight       float64 `mapstructure:"vector_weight"`
	CitationWeight     float64 `mapstructure:"citation_weight"`
	ExpandQuery        bool    `mapstructure:"expand_query"`
	Rerank             bool    `mapstructure:"rerank"`
	ExpansionRulesPath string  `mapstructure:"expansion_rules_path"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 768)
	viper.SetDefault("embedding.batch_size", 100)
	viper.SetDefault("embedding.cache_ttl", 24*time.Hour)
	viper.SetDefault("embedding.rate_limit", 10.0)
	viper.SetDefault("embedding.concurrency", 4)

	// Index defaults
	viper.SetDefault("index.backend", "chroma")
	viper.SetDefault("index.url", "http://localhost:8000")
	viper.SetDefault("index.path", "./citator_index")
	viper.SetDefault("index.collection", "knowledge")

	// Graph defaults
	viper.SetDefault("graph.damping", 0.85)
	viper.SetDefault("graph.max_iterations", 100)
	viper.SetDefault("graph.convergence_threshold", 1e-4)

	// Search defaults
	viper.SetDefault("search.vector_weight", 0.7)
	viper.SetDefault("search.citation_weight", 0.3)
	viper.SetDefault("search.expand_query", true)
	viper.SetDefault("search.rerank", true)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.citator/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	}

	if url := os.Getenv("CHROMA_URL"); url != "" {
		config.Index.URL = url
	}
	if backend := os.Getenv("INDEX_BACKEND"); backend != "" {
		config.Index.Backend = backend
	}
	if path := os.Getenv("INDEX_PATH"); path != "" {
		config.Index.Path = path
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
