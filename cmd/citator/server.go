package citator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/citator"
	"github.com/soundprediction/citator/pkg/alert"
	"github.com/soundprediction/citator/pkg/citegraph"
	"github.com/soundprediction/citator/pkg/config"
	"github.com/soundprediction/citator/pkg/embedder"
	"github.com/soundprediction/citator/pkg/index"
	citatorLogger "github.com/soundprediction/citator/pkg/logger"
	"github.com/soundprediction/citator/pkg/search"
	"github.com/soundprediction/citator/pkg/server"
	"github.com/soundprediction/citator/pkg/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the citator HTTP server",
	Long: `Start the citator HTTP server to provide REST API access to the retrieval
engine.

The server provides endpoints for:
- Indexing and deleting documents
- Hybrid search
- Recording citations and querying graph aggregates
- Exporting and importing the citation graph
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Index flags
	serverCmd.Flags().String("index-backend", "chroma", "Vector index backend (chroma, badger)")
	serverCmd.Flags().String("index-url", "http://localhost:8000", "Chroma server URL")
	serverCmd.Flags().String("index-path", "./citator_index", "Badger database path")
	serverCmd.Flags().String("index-collection", "knowledge", "Default collection name")

	// Embedding flags
	serverCmd.Flags().String("embedding-model", "text-embedding-3-small", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrideConfigWithFlags(cmd, cfg)

	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("Initializing citator...")
	client, err := initializeClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize citator: %w", err)
	}
	defer client.Close()

	srv := server.New(cfg, client)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	if cmd.Flags().Changed("index-backend") {
		cfg.Index.Backend, _ = cmd.Flags().GetString("index-backend")
	}
	if cmd.Flags().Changed("index-url") {
		cfg.Index.URL, _ = cmd.Flags().GetString("index-url")
	}
	if cmd.Flags().Changed("index-path") {
		cfg.Index.Path, _ = cmd.Flags().GetString("index-path")
	}
	if cmd.Flags().Changed("index-collection") {
		cfg.Index.Collection, _ = cmd.Flags().GetString("index-collection")
	}

	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Embedding.APIKey == "" && cfg.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding API key or base URL is required")
	}
	switch cfg.Index.Backend {
	case "chroma":
		if cfg.Index.URL == "" {
			return fmt.Errorf("index URL is required for the chroma backend")
		}
	case "badger":
	default:
		return fmt.Errorf("unsupported index backend: %s", cfg.Index.Backend)
	}
	return nil
}

func initializeClient(cfg *config.Config) (*citator.Client, error) {
	logger := citatorLogger.NewLogger(os.Stderr, citatorLogger.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	// Error telemetry via Parquet
	trackingPath := cfg.Telemetry.ParquetPath
	if trackingPath != "" {
		if err := os.MkdirAll(trackingPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
		}
		parquetHandler, err := telemetry.NewParquetHandler(logger.Handler(), trackingPath)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		} else {
			logger = slog.New(parquetHandler)
			fmt.Println("Error tracking enabled")
		}
	}

	// Embedding provider with retry and optional circuit breaking
	var provider embedder.Client = embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedder.Config{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})
	provider = embedder.NewRetryClient(provider, embedder.DefaultRetryConfig())

	if cfg.CircuitBreaker.Enabled {
		var alerter alert.Alerter = &alert.NoOpAlerter{}
		if cfg.Alert.Enabled {
			alerter = alert.NewEmailAlerter(cfg.Alert)
		}
		provider = embedder.NewCircuitBreakerClient(provider, cfg.CircuitBreaker, alerter, "embedding")
	}

	// Vector store
	var store index.Store
	switch cfg.Index.Backend {
	case "chroma":
		store = index.NewChromaStore(index.ChromaConfig{URL: cfg.Index.URL})
	case "badger":
		badgerStore, err := index.NewBadgerStore(cfg.Index.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		store = badgerStore
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", cfg.Index.Backend)
	}

	searchConfig := search.Config{
		VectorWeight:     cfg.Search.VectorWeight,
		CitationWeight:   cfg.Search.CitationWeight,
		DisableExpansion: !cfg.Search.ExpandQuery,
	}
	if cfg.Search.ExpansionRulesPath != "" {
		rules, err := search.LoadExpansionRules(cfg.Search.ExpansionRulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load expansion rules: %w", err)
		}
		searchConfig.ExpansionRules = rules
	}

	client, err := citator.NewClient(store, provider, &citator.Config{
		Collection: cfg.Index.Collection,
		Cache: embedder.CacheConfig{
			TTL:         cfg.Embedding.CacheTTL,
			BatchSize:   cfg.Embedding.BatchSize,
			Concurrency: cfg.Embedding.Concurrency,
			RateLimit:   cfg.Embedding.RateLimit,
		},
		Graph: citegraph.Options{
			Damping:              cfg.Graph.Damping,
			MaxIterations:        cfg.Graph.MaxIterations,
			ConvergenceThreshold: cfg.Graph.ConvergenceThreshold,
		},
		Search: searchConfig,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create citator client: %w", err)
	}

	fmt.Printf("Citator initialized with %s index backend\n", cfg.Index.Backend)
	fmt.Printf("Embedding model: %s\n", cfg.Embedding.Model)

	return client, nil
}
