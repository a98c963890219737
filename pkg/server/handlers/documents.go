package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/citator"
	"github.com/soundprediction/citator/pkg/server/dto"
)

// DocumentsHandler handles document indexing and deletion.
type DocumentsHandler struct {
	client citator.Citator
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(client citator.Citator) *DocumentsHandler {
	return &DocumentsHandler{client: client}
}

// IndexDocuments handles POST /api/v1/documents.
func (h *DocumentsHandler) IndexDocuments(c *gin.Context) {
	var req dto.IndexDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if len(req.Documents) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "documents array cannot be empty"})
		return
	}
	for i := range req.Documents {
		if err := req.Documents[i].Validate(); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_document", Message: err.Error()})
			return
		}
	}

	docs := make([]citator.Document, len(req.Documents))
	for i, payload := range req.Documents {
		docs[i] = citator.Document{
			ID:          payload.ID,
			Title:       payload.Title,
			Text:        payload.Text,
			Credibility: payload.Credibility,
			Type:        payload.Type,
			Metadata:    payload.Metadata,
		}
	}

	ids, err := h.client.IndexDocuments(c.Request.Context(), docs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "index_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: dto.IndexDocumentsResponse{IDs: ids}})
}

// DeleteDocuments handles DELETE /api/v1/documents.
func (h *DocumentsHandler) DeleteDocuments(c *gin.Context) {
	var req dto.DeleteDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "ids array cannot be empty"})
		return
	}

	if err := h.client.DeleteDocuments(c.Request.Context(), req.IDs); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "delete_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true})
}
