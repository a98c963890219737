package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/citator"
	"github.com/soundprediction/citator/pkg/search"
	"github.com/soundprediction/citator/pkg/server/dto"
)

// SearchHandler handles hybrid search requests.
type SearchHandler struct {
	client citator.Citator
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(client citator.Citator) *SearchHandler {
	return &SearchHandler{client: client}
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	results, err := h.client.Search(c.Request.Context(), req.Query, search.Options{
		Collection:    req.Collection,
		Limit:         req.Limit,
		Filters:       req.Filters,
		OmitScores:    req.OmitScores,
		OmitCitations: req.OmitCitations,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "search_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: results})
}

// Stats handles GET /api/v1/stats.
func (h *SearchHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: h.client.Stats()})
}
