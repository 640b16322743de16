package react

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is a tool invocation requested by the model.
type Action struct {
	Tool  string `json:"tool"`
	Input string `json:"input"`
}

// Decision is one structured loop step. Exactly one of Action and FinalAnswer
// must be set.
type Decision struct {
	Thought     string  `json:"thought"`
	Action      *Action `json:"action,omitempty"`
	FinalAnswer *string `json:"final_answer,omitempty"`
}

// ParseDecision extracts a Decision from raw model output. Markdown fences
// and surrounding prose are tolerated; the outermost JSON object is parsed.
func ParseDecision(raw string) (*Decision, error) {
	text, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var d Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}

	hasAction := d.Action != nil && d.Action.Tool != ""
	hasFinal := d.FinalAnswer != nil
	switch {
	case hasAction && hasFinal:
		return nil, fmt.Errorf("output contains both an action and a final_answer; provide exactly one")
	case !hasAction && !hasFinal:
		return nil, fmt.Errorf("output contains neither an action nor a final_answer; provide exactly one")
	}
	return &d, nil
}

// ExtractJSON returns the outermost JSON object embedded in raw text,
// stripping markdown code fences first.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("output contains no JSON object")
	}
	return text[start : end+1], nil
}
