// Package ledger assembles the billable record of a completed turn: token
// totals, dollar cost under the data source's rate card, and the validated
// summary fields.
package ledger

import (
	"time"

	"dataexplorer/internal/datasource"
	"dataexplorer/internal/models"
)

// Cost is the priced usage of one turn.
type Cost struct {
	Input  float64
	Output float64
	Total  float64
}

// Price converts accumulated token usage into dollars. Rates are expressed
// per million tokens.
func Price(usage models.TokenUsage, rates datasource.RateCard) Cost {
	in := float64(usage.InputTokens) * rates.InputPerMTok / 1e6
	out := float64(usage.OutputTokens) * rates.OutputPerMTok / 1e6
	return Cost{Input: in, Output: out, Total: in + out}
}

// Turn carries everything the pipeline produced for one turn.
type Turn struct {
	ChatID          int
	UserID          string
	SessionID       string
	Prompt          string
	RephrasedPrompt string
	Response        string
	Summary         models.Summary
	Usage           models.TokenUsage
	ModelName       string
}

// BuildRecord assembles the persisted turn record. Display flags start off;
// the client flips them through the update endpoint.
func BuildRecord(turn Turn, ds *datasource.Descriptor) *models.TurnRecord {
	cost := Price(turn.Usage, ds.Rates)
	return &models.TurnRecord{
		ID:                models.TurnKey(turn.SessionID, turn.ChatID),
		ChatID:            turn.ChatID,
		UserID:            turn.UserID,
		SessionID:         turn.SessionID,
		Prompt:            turn.Prompt,
		RephrasedPrompt:   turn.RephrasedPrompt,
		Response:          turn.Response,
		SQLCode:           turn.Summary.SQLCode,
		Visualization:     turn.Summary.Visualization,
		Followups:         turn.Summary.Followups,
		ViewVisualization: turn.Summary.ViewVisualization,
		ShowSQL:           false,
		ShowVisualization: false,
		InputTokens:       turn.Usage.InputTokens,
		OutputTokens:      turn.Usage.OutputTokens,
		InputCost:         cost.Input,
		OutputCost:        cost.Output,
		TotalCost:         cost.Total,
		ModelName:         turn.ModelName,
		DataSource:        ds.Name,
		ApplicationName:   ds.ApplicationName,
		InsertedAt:        time.Now().UTC(),
	}
}
