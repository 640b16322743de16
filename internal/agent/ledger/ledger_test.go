package ledger

import (
	"math"
	"testing"

	"dataexplorer/internal/datasource"
	"dataexplorer/internal/models"
)

func TestPrice(t *testing.T) {
	rates := datasource.RateCard{InputPerMTok: 1.0, OutputPerMTok: 5.0}

	t.Run("prices tokens per million", func(t *testing.T) {
		cost := Price(models.TokenUsage{InputTokens: 2_000_000, OutputTokens: 100_000}, rates)
		if !close(cost.Input, 2.0) {
			t.Errorf("expected input cost 2.0, got %f", cost.Input)
		}
		if !close(cost.Output, 0.5) {
			t.Errorf("expected output cost 0.5, got %f", cost.Output)
		}
		if !close(cost.Total, 2.5) {
			t.Errorf("expected total cost 2.5, got %f", cost.Total)
		}
	})

	t.Run("zero usage costs nothing", func(t *testing.T) {
		cost := Price(models.TokenUsage{}, rates)
		if cost.Total != 0 {
			t.Errorf("expected zero cost, got %f", cost.Total)
		}
	})
}

func TestBuildRecord(t *testing.T) {
	ds := &datasource.Descriptor{
		Name:            "ahrf",
		ApplicationName: "Area Health Resources",
		Rates:           datasource.RateCard{Model: "claude-haiku-4-5-20251001", InputPerMTok: 1.0, OutputPerMTok: 5.0},
	}

	record := BuildRecord(Turn{
		ChatID:          3,
		UserID:          "u1",
		SessionID:       "s1",
		Prompt:          "how many clinics",
		RephrasedPrompt: "count of clinics by county",
		Response:        "There are 12 clinics.",
		Summary: models.Summary{
			SQLCode:           "SELECT count(*) FROM clinics",
			Followups:         []models.Followup{{Type: "sql", Label: "Show by state"}},
			ViewVisualization: true,
		},
		Usage:     models.TokenUsage{InputTokens: 1000, OutputTokens: 500},
		ModelName: "claude-haiku-4-5-20251001",
	}, ds)

	if record.ID != "s1-3" {
		t.Errorf("expected id s1-3, got %q", record.ID)
	}
	if record.DataSource != "ahrf" || record.ApplicationName != "Area Health Resources" {
		t.Errorf("expected descriptor identity on record, got %q/%q", record.DataSource, record.ApplicationName)
	}
	if record.ShowSQL || record.ShowVisualization {
		t.Error("expected display flags to start off")
	}
	if !record.ViewVisualization {
		t.Error("expected summary viewVisualization carried over")
	}
	if !close(record.TotalCost, 0.001+0.0025) {
		t.Errorf("unexpected total cost %f", record.TotalCost)
	}
	if record.InsertedAt.IsZero() {
		t.Error("expected insertedAt set")
	}
}

func close(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
