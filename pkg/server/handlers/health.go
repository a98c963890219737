package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/citator"
)

// Build information, settable at build time with ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	client citator.Citator
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(client citator.Citator) *HealthHandler {
	return &HealthHandler{client: client}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "citator",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// LivenessCheck handles GET /live.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "citator",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready. It verifies the engine can answer a
// statistics call, which exercises the graph lock and the embedding cache
// counters without side effects.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	response := gin.H{
		"status":    "ready",
		"service":   "citator",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}
	checks := response["checks"].(gin.H)

	if h.client == nil {
		checks["engine"] = gin.H{"status": "unhealthy", "error": "client not initialized"}
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	start := time.Now()
	stats := h.client.Stats()
	checks["engine"] = gin.H{
		"status":   "healthy",
		"duration": time.Since(start).String(),
		"nodes":    stats.Graph.NodeCount,
	}

	c.JSON(http.StatusOK, response)
}

// DetailedHealthCheck handles GET /health/detailed.
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	start := time.Now()
	response := gin.H{
		"status":  "healthy",
		"service": "citator",
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
		"checks": gin.H{},
	}
	checks := response["checks"].(gin.H)

	if h.client != nil {
		stats := h.client.Stats()
		checks["engine"] = gin.H{
			"status":         "healthy",
			"searches":       stats.Search.Searches,
			"cache_hit_rate": stats.Cache.HitRate,
			"graph_nodes":    stats.Graph.NodeCount,
			"graph_edges":    stats.Graph.EdgeCount,
		}
	} else {
		checks["engine"] = gin.H{"status": "unhealthy", "error": "client not initialized"}
		response["status"] = "unhealthy"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["system"] = gin.H{
		"status":       "healthy",
		"memory_usage": fmt.Sprintf("%.2f MB", float64(m.Alloc)/(1024*1024)),
		"goroutines":   runtime.NumGoroutine(),
		"gc_cycles":    m.NumGC,
	}

	response["response_time_ms"] = time.Since(start).Milliseconds()

	if response["status"] != "healthy" {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
