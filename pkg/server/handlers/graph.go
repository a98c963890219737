package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/citator"
	"github.com/soundprediction/citator/pkg/citegraph"
	"github.com/soundprediction/citator/pkg/server/dto"
)

// GraphHandler handles citation graph requests.
type GraphHandler struct {
	client citator.Citator
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(client citator.Citator) *GraphHandler {
	return &GraphHandler{client: client}
}

// Cite handles POST /api/v1/graph/citations.
func (h *GraphHandler) Cite(c *gin.Context) {
	var req dto.CiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	err := h.client.Cite(req.SourceID, req.TargetID, citegraph.EdgeOptions{
		CitationType: req.CitationType,
		Weight:       req.Weight,
		Context:      req.Context,
	})
	if err != nil {
		var vErr *citegraph.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_citation", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "cite_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.Result{Success: true})
}

// Influence handles GET /api/v1/graph/influence/:id.
func (h *GraphHandler) Influence(c *gin.Context) {
	id := c.Param("id")

	score, err := h.client.InfluenceScore(id)
	if err != nil {
		if errors.Is(err, citator.ErrNodeNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "node_not_found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "influence_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"id": id, "influence": score}})
}

// PageRank handles GET /api/v1/graph/pagerank.
func (h *GraphHandler) PageRank(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: h.client.PageRank()})
}

// Cycles handles GET /api/v1/graph/cycles/:id.
func (h *GraphHandler) Cycles(c *gin.Context) {
	id := c.Param("id")

	cycles, err := h.client.DetectCycles(id)
	if err != nil {
		if errors.Is(err, citator.ErrNodeNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "node_not_found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "cycles_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"start_id": id, "cycles": cycles}})
}

// Statistics handles GET /api/v1/graph/statistics.
func (h *GraphHandler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: h.client.GraphStatistics()})
}

// Export handles GET /api/v1/graph/export.
func (h *GraphHandler) Export(c *gin.Context) {
	data, err := h.client.ExportGraph()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "export_failed", Message: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// Import handles POST /api/v1/graph/import.
func (h *GraphHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.client.ImportGraph(data); err != nil {
		var vErr *citegraph.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_graph", Message: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "import_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true})
}
