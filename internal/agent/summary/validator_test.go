package summary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"dataexplorer/internal/datasource"
	"dataexplorer/internal/llm/fake"
	"dataexplorer/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validPayload = `{
	"sqlCode": "SELECT 1",
	"visualization": {"type": "bar", "x": ["north", "south"], "y": [3, 4], "title": "t"},
	"followups": [{"type": "sql", "label": "Show the raw numbers"}],
	"viewVisualization": true
}`

func TestParse(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		s, err := Parse(validPayload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.SQLCode != "SELECT 1" {
			t.Errorf("expected sql code, got %q", s.SQLCode)
		}
		if s.Visualization == nil || s.Visualization.Type != "bar" {
			t.Errorf("expected bar chart, got %+v", s.Visualization)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("expected valid summary, got %v", err)
		}
	})

	t.Run("empty chart object means no chart", func(t *testing.T) {
		s, err := Parse(`{"sqlCode": "", "visualization": {}, "followups": [], "viewVisualization": false}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Visualization != nil {
			t.Errorf("expected nil visualization, got %+v", s.Visualization)
		}
	})

	t.Run("missing followups decodes to empty slice", func(t *testing.T) {
		s, err := Parse(`{"sqlCode": "", "visualization": null, "viewVisualization": false}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Followups == nil {
			t.Error("expected non-nil followups")
		}
	})

	t.Run("fenced payload", func(t *testing.T) {
		if _, err := Parse("```json\n" + validPayload + "\n```"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("non-json payload", func(t *testing.T) {
		if _, err := Parse("sorry, I cannot do that"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestValidatorBuild(t *testing.T) {
	ds := &datasource.Descriptor{Name: "ahrf"}

	t.Run("valid first attempt", func(t *testing.T) {
		client := fake.NewClient("fake-model")
		client.Enqueue(validPayload, models.TokenUsage{InputTokens: 100, OutputTokens: 50})

		s, usage := NewValidator(client, testLogger()).Build(context.Background(), ds, "q", "SELECT 1", "a")
		if s.SQLCode != "SELECT 1" {
			t.Errorf("expected summary from first attempt, got %+v", s)
		}
		if usage.InputTokens != 100 || usage.OutputTokens != 50 {
			t.Errorf("expected usage 100/50, got %d/%d", usage.InputTokens, usage.OutputTokens)
		}
	})

	t.Run("invalid payload is repaired", func(t *testing.T) {
		client := fake.NewClient("fake-model")
		// Chart with mismatched x/y lengths fails validation.
		client.Enqueue(`{"sqlCode": "", "visualization": {"type": "bar", "x": ["a", "b", "c"], "y": [1], "title": "t"}, "followups": [], "viewVisualization": true}`, models.TokenUsage{})
		client.Enqueue(validPayload, models.TokenUsage{})

		s, _ := NewValidator(client, testLogger()).Build(context.Background(), ds, "q", "", "a")
		if s.SQLCode != "SELECT 1" {
			t.Errorf("expected repaired summary, got %+v", s)
		}
		if len(client.Prompts()) != 2 {
			t.Errorf("expected a repair call, got %d prompts", len(client.Prompts()))
		}
	})

	t.Run("exhausted repairs fall back to default", func(t *testing.T) {
		client := fake.NewClient("fake-model")
		for i := 0; i < maxRepairAttempts+1; i++ {
			client.Enqueue("still not json", models.TokenUsage{})
		}

		s, _ := NewValidator(client, testLogger()).Build(context.Background(), ds, "q", "", "a")
		want := models.DefaultSummary()
		if s.SQLCode != want.SQLCode || s.Visualization != nil || s.ViewVisualization {
			t.Errorf("expected default summary, got %+v", s)
		}
		if client.Remaining() != 0 {
			t.Errorf("expected all repair attempts consumed, %d left", client.Remaining())
		}
	})

	t.Run("model failure falls back to default", func(t *testing.T) {
		client := fake.NewClient("fake-model")
		client.EnqueueErr(errors.New("boom"))

		s, _ := NewValidator(client, testLogger()).Build(context.Background(), ds, "q", "", "a")
		if s.SQLCode != "" || s.Visualization != nil {
			t.Errorf("expected default summary, got %+v", s)
		}
	})

	t.Run("forced fields are emptied before validation", func(t *testing.T) {
		research := &datasource.Descriptor{
			Name:              "research",
			ForcedEmptyFields: []string{"sqlCode", "visualization", "viewVisualization"},
		}
		client := fake.NewClient("fake-model")
		client.Enqueue(validPayload, models.TokenUsage{})

		s, _ := NewValidator(client, testLogger()).Build(context.Background(), research, "q", "", "a")
		if s.SQLCode != "" {
			t.Errorf("expected forced-empty sqlCode, got %q", s.SQLCode)
		}
		if s.Visualization != nil {
			t.Errorf("expected forced-nil visualization, got %+v", s.Visualization)
		}
		if s.ViewVisualization {
			t.Error("expected forced-false viewVisualization")
		}
		if len(s.Followups) != 1 {
			t.Errorf("expected followups preserved, got %+v", s.Followups)
		}
	})
}
