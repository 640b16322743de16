package models

import (
	"fmt"
	"strings"
)

// StepKind classifies one logged unit of intermediate reasoning or output.
type StepKind string

const (
	StepUserQuestion StepKind = "user_question"
	StepRephrase     StepKind = "rephrased_query"
	StepPriorTurn    StepKind = "prior_turn"
	StepThoughts     StepKind = "retrieval_thoughts"
	StepToolOutput   StepKind = "tool_output"
	StepFinalOutput  StepKind = "final_output"
)

// AgentStep is one entry of the per-turn step log. Entries are append-only and
// their order is significant: later prompts see them in the order produced.
type AgentStep struct {
	Kind    StepKind `json:"kind"`
	Payload string   `json:"payload"`
}

// StepLog accumulates agent steps for one turn. It only grows; stages may read
// but never rewrite earlier entries.
type StepLog struct {
	steps []AgentStep
}

// Append adds one step to the log.
func (l *StepLog) Append(kind StepKind, payload string) {
	l.steps = append(l.steps, AgentStep{Kind: kind, Payload: payload})
}

// Steps returns a copy of the log so callers cannot mutate history.
func (l *StepLog) Steps() []AgentStep {
	out := make([]AgentStep, len(l.steps))
	copy(out, l.steps)
	return out
}

// Len returns the number of logged steps.
func (l *StepLog) Len() int {
	return len(l.steps)
}

// Render formats the log for inclusion in a prompt, one tagged block per step.
func (l *StepLog) Render() string {
	var b strings.Builder
	for _, step := range l.steps {
		fmt.Fprintf(&b, "[%s]\n%s\n", step.Kind, step.Payload)
	}
	return b.String()
}

// TokenUsage tracks accumulated token counts for one turn. Counters are
// monotonically non-decreasing and are the sole input to cost computation.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates another usage sample into the counters.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
