package llm

import (
	"context"

	"dataexplorer/internal/models"
)

// StreamChunk is one fragment of an incremental model response. Usage is only
// set on the terminal chunk; Err is set instead of Text when streaming fails
// mid-flight.
type StreamChunk struct {
	Text  string
	Usage *models.TokenUsage
	Err   error
}

// Client is the narrow boundary to the language model: prompt in, text and
// token counts out. Implementations are stateless and safe for concurrent use
// across turns.
type Client interface {
	// Invoke performs one blocking completion.
	Invoke(ctx context.Context, prompt string) (string, models.TokenUsage, error)

	// Stream performs one incremental completion. The returned channel is
	// closed after the terminal chunk (or an error chunk) is delivered.
	Stream(ctx context.Context, prompt string) (<-chan StreamChunk, error)

	// Model returns the model identifier used for billing.
	Model() string
}
