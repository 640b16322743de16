package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"dataexplorer/internal/llm"
	"dataexplorer/internal/models"
)

const (
	// callTimeout bounds every model call; a timeout surfaces to the
	// sequencer's top-level error policy rather than a separate channel.
	callTimeout = 30 * time.Second

	maxTokens = 4096
)

// Client implements llm.Client against the Anthropic Messages API.
type Client struct {
	client *anthropic.Client
	model  string
}

// NewClient creates an Anthropic-backed model client. The transport retries
// at most once; everything else is handled by the pipeline's error policy.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	)

	return &Client{
		client: &client,
		model:  model,
	}, nil
}

// Model returns the model identifier used for billing.
func (c *Client) Model() string {
	return c.model
}

// Invoke performs one blocking completion.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, models.TokenUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", models.TokenUsage{}, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, content := range message.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}

	usage := models.TokenUsage{
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}
	return text, usage, nil
}

// Stream performs one incremental completion, emitting text fragments as they
// arrive and final token counts on the terminal chunk.
func (c *Client) Stream(ctx context.Context, prompt string) (<-chan llm.StreamChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)

	stream := c.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	chunks := make(chan llm.StreamChunk)

	go func() {
		defer cancel()
		defer close(chunks)

		message := anthropic.Message{}

		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				deliver(ctx, chunks, llm.StreamChunk{Err: fmt.Errorf("accumulate message: %w", err)})
				return
			}

			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if delta.Delta.Type == "text_delta" && delta.Delta.Text != "" {
					if !deliver(ctx, chunks, llm.StreamChunk{Text: delta.Delta.Text}) {
						return
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			deliver(ctx, chunks, llm.StreamChunk{Err: fmt.Errorf("anthropic streaming error: %w", err)})
			return
		}

		deliver(ctx, chunks, llm.StreamChunk{
			Usage: &models.TokenUsage{
				InputTokens:  int(message.Usage.InputTokens),
				OutputTokens: int(message.Usage.OutputTokens),
			},
		})
	}()

	return chunks, nil
}

// deliver sends one chunk unless the call context ends first. The consumer
// stops receiving on context cancellation, so every send must carry the Done
// escape hatch or the producer goroutine and the open stream leak. A parked
// receiver still gets the chunk even after cancellation via the final
// non-blocking attempt.
func deliver(ctx context.Context, ch chan<- llm.StreamChunk, chunk llm.StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		select {
		case ch <- chunk:
			return true
		default:
			return false
		}
	}
}
