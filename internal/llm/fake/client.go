// Package fake provides a scripted model client for tests. Responses are
// served in FIFO order from a queue, so a test can enqueue one response per
// expected model call and assert on the prompts afterwards.
package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dataexplorer/internal/llm"
	"dataexplorer/internal/models"
)

// Response is one scripted reply. If Err is set the call fails with it.
type Response struct {
	Text  string
	Usage models.TokenUsage
	Err   error
}

// Client implements llm.Client with canned responses.
type Client struct {
	mu        sync.Mutex
	modelName string
	queue     []Response
	prompts   []string
}

// NewClient creates a fake client with an empty script.
func NewClient(modelName string) *Client {
	if modelName == "" {
		modelName = "fake-model"
	}
	return &Client{modelName: modelName}
}

// Enqueue appends a scripted text response with the given usage.
func (c *Client) Enqueue(text string, usage models.TokenUsage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, Response{Text: text, Usage: usage})
}

// EnqueueErr appends a scripted failure.
func (c *Client) EnqueueErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, Response{Err: err})
}

// Prompts returns a copy of every prompt the client has received, in order.
func (c *Client) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// Remaining reports how many scripted responses are still queued.
func (c *Client) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Client) next(prompt string) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.queue) == 0 {
		return Response{}, fmt.Errorf("fake: no scripted response for call %d", len(c.prompts))
	}
	resp := c.queue[0]
	c.queue = c.queue[1:]
	return resp, nil
}

// Invoke pops the next scripted response.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, models.TokenUsage, error) {
	if err := ctx.Err(); err != nil {
		return "", models.TokenUsage{}, err
	}
	resp, err := c.next(prompt)
	if err != nil {
		return "", models.TokenUsage{}, err
	}
	if resp.Err != nil {
		return "", models.TokenUsage{}, resp.Err
	}
	return resp.Text, resp.Usage, nil
}

// Stream pops the next scripted response and emits it one word per chunk,
// followed by a terminal usage chunk, matching the real client's shape.
func (c *Client) Stream(ctx context.Context, prompt string) (<-chan llm.StreamChunk, error) {
	resp, err := c.next(prompt)
	if err != nil {
		return nil, err
	}
	chunks := make(chan llm.StreamChunk)
	go func() {
		defer close(chunks)
		if resp.Err != nil {
			select {
			case chunks <- llm.StreamChunk{Err: resp.Err}:
			case <-ctx.Done():
			}
			return
		}
		words := strings.SplitAfter(resp.Text, " ")
		for _, w := range words {
			if w == "" {
				continue
			}
			select {
			case chunks <- llm.StreamChunk{Text: w}:
			case <-ctx.Done():
				return
			}
		}
		usage := resp.Usage
		select {
		case chunks <- llm.StreamChunk{Usage: &usage}:
		case <-ctx.Done():
		}
	}()
	return chunks, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.modelName }
