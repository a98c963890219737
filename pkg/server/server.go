package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundprediction/citator"
	"github.com/soundprediction/citator/pkg/config"
	"github.com/soundprediction/citator/pkg/server/handlers"
	"github.com/soundprediction/citator/pkg/telemetry"
)

// Server is the HTTP front for a citator client.
type Server struct {
	config *config.Config
	router *gin.Engine
	client citator.Citator
	server *http.Server
}

// New creates a new server instance.
func New(cfg *config.Config, client citator.Citator) *Server {
	return &Server{
		config: cfg,
		client: client,
	}
}

// Setup sets up the server routes and middleware.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router returns the configured gin engine. Setup must have run.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.client)
	documentsHandler := handlers.NewDocumentsHandler(s.client)
	searchHandler := handlers.NewSearchHandler(s.client)
	graphHandler := handlers.NewGraphHandler(s.client)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/documents", documentsHandler.IndexDocuments)
		v1.DELETE("/documents", documentsHandler.DeleteDocuments)

		v1.POST("/search", searchHandler.Search)
		v1.GET("/stats", searchHandler.Stats)

		graph := v1.Group("/graph")
		{
			graph.POST("/citations", graphHandler.Cite)
			graph.GET("/influence/:id", graphHandler.Influence)
			graph.GET("/pagerank", graphHandler.PageRank)
			graph.GET("/cycles/:id", graphHandler.Cycles)
			graph.GET("/statistics", graphHandler.Statistics)
			graph.GET("/export", graphHandler.Export)
			graph.POST("/import", graphHandler.Import)
		}
	}
}

// Start starts the server.
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware tags every request so error telemetry can correlate log
// records with the originating request.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = context.WithValue(ctx, telemetry.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, telemetry.ContextKeyRequestSource, "server")

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
