// Package react runs bounded tool-use reasoning loops. Each iteration asks
// the model for a structured decision, either a tool call or a final answer,
// and feeds tool observations back into the next prompt.
package react

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dataexplorer/internal/agent/tools"
	"dataexplorer/internal/llm"
	"dataexplorer/internal/models"
)

// MaxIterations bounds how many decisions a single loop may take.
const MaxIterations = 25

const decisionFormat = `Respond with a single JSON object and nothing else, in one of two forms:
{"thought": "<your reasoning>", "action": {"tool": "<tool name>", "input": "<tool input>"}}
{"thought": "<your reasoning>", "final_answer": "<your answer>"}`

// Result is the outcome of a completed loop.
type Result struct {
	Answer string
	Steps  []models.AgentStep
	Usage  models.TokenUsage
}

// Executor drives reasoning loops against one model client.
type Executor struct {
	client llm.Client
	logger *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(client llm.Client, logger *slog.Logger) *Executor {
	return &Executor{client: client, logger: logger}
}

// Run executes one loop: instructions describe the agent's job, task is the
// concrete request, registry supplies the available tools. The loop ends when
// the model emits a final answer or the iteration cap is reached. Cap
// exhaustion is a soft failure: the result carries whatever answer text
// exists (possibly empty) and no error, so the enclosing turn continues.
//
// A malformed decision gets one corrective re-prompt that does not count
// against the cap; a second consecutive malformed decision consumes an
// iteration.
func (e *Executor) Run(ctx context.Context, instructions, task string, registry *tools.Registry) (*Result, error) {
	result := &Result{}

	var transcript strings.Builder
	base := fmt.Sprintf("%s\n\nAvailable tools:\n%s\n%s\n\nTask:\n%s\n",
		instructions, registry.Describe(), decisionFormat, task)

	retried := false
	for iteration := 0; iteration < MaxIterations; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := base + transcript.String()
		raw, usage, err := e.client.Invoke(ctx, prompt)
		result.Usage.Add(usage)
		if err != nil {
			return nil, fmt.Errorf("reasoning loop model call failed: %w", err)
		}

		decision, err := ParseDecision(raw)
		if err != nil {
			e.logger.Warn("malformed loop decision",
				slog.Int("iteration", iteration),
				slog.String("error", err.Error()))
			fmt.Fprintf(&transcript, "\nYour previous response was invalid: %v\n%s\n", err, decisionFormat)
			if retried {
				iteration++
			}
			retried = !retried
			continue
		}
		retried = false

		if decision.Thought != "" {
			result.Steps = append(result.Steps, models.AgentStep{
				Kind:    models.StepThoughts,
				Payload: decision.Thought,
			})
		}

		if decision.FinalAnswer != nil {
			result.Answer = *decision.FinalAnswer
			result.Steps = append(result.Steps, models.AgentStep{
				Kind:    models.StepFinalOutput,
				Payload: result.Answer,
			})
			return result, nil
		}

		observation := registry.Execute(ctx, decision.Action.Tool, decision.Action.Input)
		result.Steps = append(result.Steps, models.AgentStep{
			Kind:    models.StepToolOutput,
			Payload: observation,
		})
		fmt.Fprintf(&transcript, "\nThought: %s\nAction: %s(%s)\nObservation:\n%s\n",
			decision.Thought, decision.Action.Tool, decision.Action.Input, observation)
		iteration++
	}

	e.logger.Warn("reasoning loop hit iteration cap without a final answer",
		slog.Int("iterations", MaxIterations))
	return result, nil
}
