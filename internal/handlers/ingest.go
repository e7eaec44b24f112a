package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/avvvet/chatrag/internal/knowledge"
	"github.com/avvvet/chatrag/internal/metrics"
	"github.com/avvvet/chatrag/internal/models"
)

// Ingester writes documents into the knowledge base.
type Ingester interface {
	EnsureCollection(ctx context.Context) error
	Ingest(ctx context.Context, docs []knowledge.Document) (int, error)
}

// IngestHandler serves POST /api/ingest.
type IngestHandler struct {
	kb Ingester // nil when the knowledge base is not configured
}

func NewIngestHandler(kb Ingester) *IngestHandler {
	return &IngestHandler{kb: kb}
}

func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "Documents array is required", "")
		return
	}
	if h.kb == nil {
		writeError(w, http.StatusInternalServerError, "Knowledge base not configured", "")
		return
	}

	if err := h.kb.EnsureCollection(r.Context()); err != nil {
		log.Printf("⚠️ Failed to ensure collection: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to prepare knowledge base", err.Error())
		return
	}

	docs := make([]knowledge.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, knowledge.Document{ID: d.ID, Text: d.Text, Metadata: d.Metadata})
	}

	count, err := h.kb.Ingest(r.Context(), docs)
	if err != nil {
		log.Printf("⚠️ Ingestion failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to ingest documents", err.Error())
		return
	}

	metrics.DocumentsIngested.Add(float64(count))
	log.Printf("📥 Ingested %d documents", count)
	writeJSON(w, http.StatusOK, models.IngestResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully ingested %d documents", count),
		Count:   count,
	})
}
