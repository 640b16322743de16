package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"dataexplorer/internal/agent/react"
	"dataexplorer/internal/models"
)

// intentDecision is the triage result for one turn.
type intentDecision struct {
	ContextRequired bool   `json:"context_required"`
	ChatIDs         []int  `json:"chatIds"`
	Response        string `json:"response"`
	RunDownstream   bool   `json:"run_downstream_llm"`
	RephrasedQuery  string `json:"rephrased_query"`
}

func parseIntent(raw string) (*intentDecision, error) {
	text, err := react.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var d intentDecision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, fmt.Errorf("intent decision is not valid JSON: %w", err)
	}
	return &d, nil
}

// classifyIntent runs the triage call, allowing one corrective re-prompt on
// malformed output.
func (s *Service) classifyIntent(ctx context.Context, st *turnState) (*intentDecision, error) {
	prompt := intentPrompt(st.req.Prompt, st.prior, st.ds.Description)
	raw, usage, err := s.client.Invoke(ctx, prompt)
	st.usage.Add(usage)
	if err != nil {
		return nil, fmt.Errorf("intent call failed: %w", err)
	}

	decision, parseErr := parseIntent(raw)
	if parseErr == nil {
		return decision, nil
	}

	retry := fmt.Sprintf("Your previous response could not be used.\n\nPrevious response:\n%s\n\nProblem: %v\n\n%s",
		raw, parseErr, intentFormat)
	raw, usage, err = s.client.Invoke(ctx, retry)
	st.usage.Add(usage)
	if err != nil {
		return nil, fmt.Errorf("intent repair call failed: %w", err)
	}
	decision, parseErr = parseIntent(raw)
	if parseErr != nil {
		return nil, fmt.Errorf("intent decision unusable after repair: %w", parseErr)
	}
	return decision, nil
}

// referencedTurns returns the prior turns named by the decision, in their
// original order.
func referencedTurns(prior []models.PriorTurn, ids []int) []models.PriorTurn {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.PriorTurn
	for _, t := range prior {
		if want[t.ChatID] {
			out = append(out, t)
		}
	}
	return out
}
