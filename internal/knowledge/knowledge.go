// Package knowledge provides vector similarity search and document ingestion
// for the chat pipeline's retrieval augmentation.
package knowledge

import "context"

// Result is a single hit from a similarity search.
type Result struct {
	// Text is the document text associated with the vector.
	Text string `json:"text"`

	// Score is the similarity score (0.0-1.0, higher is more similar).
	Score float32 `json:"score"`

	// Metadata contains additional key-value pairs stored with the document.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Document is one unit of ingestion.
type Document struct {
	// ID is optional; a UUID is derived or generated when absent.
	ID string

	// Text is the document body that gets embedded and stored.
	Text string

	// Metadata is stored alongside the text and returned with search hits.
	Metadata map[string]any
}

// Searcher performs similarity search over the knowledge base.
// Results are ordered by descending score.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}
