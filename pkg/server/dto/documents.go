package dto

import (
	"errors"
	"strings"
)

// MaxTextLength bounds a single document's text.
const MaxTextLength = 100_000

// ErrTextTooLong is returned when a document exceeds MaxTextLength.
var ErrTextTooLong = errors.New("document text exceeds maximum length")

// DocumentPayload is one document in an indexing request.
type DocumentPayload struct {
	ID          string            `json:"id,omitempty"`
	Title       string            `json:"title" binding:"required"`
	Text        string            `json:"text" binding:"required"`
	Credibility *float64          `json:"credibility,omitempty"`
	Type        string            `json:"type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Validate performs validation on DocumentPayload.
func (d *DocumentPayload) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if strings.TrimSpace(d.Text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(d.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	if d.Credibility != nil && (*d.Credibility < 0 || *d.Credibility > 100) {
		return errors.New("credibility must be between 0 and 100")
	}
	return nil
}

// IndexDocumentsRequest is the body of POST /api/v1/documents.
type IndexDocumentsRequest struct {
	Documents []DocumentPayload `json:"documents" binding:"required"`
}

// IndexDocumentsResponse returns the final id of every indexed document.
type IndexDocumentsResponse struct {
	IDs []string `json:"ids"`
}

// DeleteDocumentsRequest is the body of DELETE /api/v1/documents.
type DeleteDocumentsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// CiteRequest is the body of POST /api/v1/graph/citations.
type CiteRequest struct {
	SourceID     string   `json:"source_id" binding:"required"`
	TargetID     string   `json:"target_id" binding:"required"`
	CitationType string   `json:"citation_type,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Context      string   `json:"context,omitempty"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query         string            `json:"query" binding:"required"`
	Collection    string            `json:"collection,omitempty"`
	Limit         int               `json:"limit,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
	OmitScores    bool              `json:"omit_scores,omitempty"`
	OmitCitations bool              `json:"omit_citations,omitempty"`
}

// Validate performs validation on SearchRequest.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if r.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}
