package anthropic

import (
	"context"
	"testing"
	"time"

	"dataexplorer/internal/llm"
	"dataexplorer/internal/models"
)

func TestNewClient(t *testing.T) {
	t.Run("requires an API key", func(t *testing.T) {
		if _, err := NewClient("", "claude-haiku-4-5-20251001"); err == nil {
			t.Error("expected error for empty API key")
		}
	})

	t.Run("reports its model", func(t *testing.T) {
		c, err := NewClient("key", "claude-haiku-4-5-20251001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Model() != "claude-haiku-4-5-20251001" {
			t.Errorf("unexpected model %q", c.Model())
		}
	})
}

func TestDeliver(t *testing.T) {
	t.Run("reaches an active receiver", func(t *testing.T) {
		ch := make(chan llm.StreamChunk)
		got := make(chan llm.StreamChunk, 1)
		go func() { got <- <-ch }()

		if !deliver(context.Background(), ch, llm.StreamChunk{Text: "hi"}) {
			t.Fatal("expected delivery to succeed")
		}
		if chunk := <-got; chunk.Text != "hi" {
			t.Errorf("unexpected chunk %+v", chunk)
		}
	})

	t.Run("returns instead of blocking when the consumer is gone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ch := make(chan llm.StreamChunk)

		done := make(chan bool, 1)
		go func() {
			done <- deliver(ctx, ch, llm.StreamChunk{Err: ctx.Err()})
		}()

		select {
		case ok := <-done:
			if ok {
				t.Error("expected failed delivery with no receiver")
			}
		case <-time.After(time.Second):
			t.Fatal("deliver blocked with no receiver")
		}
	})

	t.Run("parked receiver still gets the chunk after cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ch := make(chan llm.StreamChunk)

		got := make(chan llm.StreamChunk, 1)
		ready := make(chan struct{})
		go func() {
			close(ready)
			got <- <-ch
		}()
		<-ready
		// Let the receiver park on the channel before sending.
		time.Sleep(10 * time.Millisecond)

		usage := &models.TokenUsage{InputTokens: 3, OutputTokens: 7}
		deliver(ctx, ch, llm.StreamChunk{Usage: usage})

		select {
		case chunk := <-got:
			if chunk.Usage == nil || chunk.Usage.OutputTokens != 7 {
				t.Errorf("unexpected chunk %+v", chunk)
			}
		case <-time.After(time.Second):
			t.Fatal("chunk never reached the parked receiver")
		}
	})
}
