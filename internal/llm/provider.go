package llm

import (
	"context"

	"github.com/avvvet/chatrag/internal/models"
)

// Completion is the outcome of one completion call.
type Completion struct {
	Content string
	Usage   *models.Usage
}

// Provider defines the interface for completion providers.
type Provider interface {
	// Complete performs a non-streaming completion. model may be empty to
	// use the provider's default.
	Complete(ctx context.Context, messages []models.ChatMessage, model string) (*Completion, error)

	// Stream performs a streaming completion, invoking onDelta for every
	// content chunk, and returns the full completion once the stream ends.
	// A non-nil error from onDelta aborts the stream.
	Stream(ctx context.Context, messages []models.ChatMessage, model string, onDelta func(chunk string) error) (*Completion, error)
}
