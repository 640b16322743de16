// Package summary turns a finished answer into the validated structured
// payload the client renders: SQL, an optional chart, and follow-up prompts.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"dataexplorer/internal/agent/react"
	"dataexplorer/internal/datasource"
	"dataexplorer/internal/llm"
	"dataexplorer/internal/models"
)

// maxRepairAttempts bounds how many times a failed payload is sent back to
// the model for repair before falling back to the empty summary.
const maxRepairAttempts = 5

const formatInstructions = `Respond with a single JSON object and nothing else:
{
  "sqlCode": "<the SQL behind the answer, or empty string>",
  "visualization": {"type": "bar|pie|line", "x": [...], "y": [...], "xLabel": "...", "yLabel": "...", "title": "...", "series": [...]} or null,
  "followups": [{"type": "sql|visualization|general", "label": "<short suggestion>"}],
  "viewVisualization": true or false
}
Use null for visualization when no chart is appropriate. Provide at most four followups.`

// Validator produces validated summaries with model-assisted repair.
type Validator struct {
	client llm.Client
	logger *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(client llm.Client, logger *slog.Logger) *Validator {
	return &Validator{client: client, logger: logger}
}

// Build asks the model for a structured summary of the answer and validates
// it, re-prompting with the exact validation error up to maxRepairAttempts
// times. On exhaustion the empty default summary is returned rather than an
// error, so a turn never fails on presentation metadata.
func (v *Validator) Build(ctx context.Context, ds *datasource.Descriptor, question, sqlCode, answer string) (models.Summary, models.TokenUsage) {
	var usage models.TokenUsage

	prompt := v.buildPrompt(ds, question, sqlCode, answer)
	raw, callUsage, err := v.client.Invoke(ctx, prompt)
	usage.Add(callUsage)
	if err != nil {
		v.logger.Warn("summary call failed, using default", slog.String("error", err.Error()))
		return models.DefaultSummary(), usage
	}

	for attempt := 0; ; attempt++ {
		s, parseErr := Parse(raw)
		if parseErr == nil {
			applyForcedFields(ds, s)
			parseErr = s.Validate()
			if parseErr == nil {
				return *s, usage
			}
		}

		if attempt >= maxRepairAttempts {
			v.logger.Warn("summary repair exhausted, using default",
				slog.Int("attempts", attempt),
				slog.String("error", parseErr.Error()))
			return models.DefaultSummary(), usage
		}

		v.logger.Debug("repairing summary payload",
			slog.Int("attempt", attempt+1),
			slog.String("error", parseErr.Error()))

		repairPrompt := fmt.Sprintf(
			"Your previous response could not be used.\n\nPrevious response:\n%s\n\nProblem: %v\n\n%s",
			raw, parseErr, formatInstructions)
		raw, callUsage, err = v.client.Invoke(ctx, repairPrompt)
		usage.Add(callUsage)
		if err != nil {
			v.logger.Warn("summary repair call failed, using default", slog.String("error", err.Error()))
			return models.DefaultSummary(), usage
		}
	}
}

func (v *Validator) buildPrompt(ds *datasource.Descriptor, question, sqlCode, answer string) string {
	var b strings.Builder
	b.WriteString("Summarize the completed analysis below into a structured payload.\n\n")
	fmt.Fprintf(&b, "Question:\n%s\n\nAnswer:\n%s\n", question, answer)
	if sqlCode != "" {
		fmt.Fprintf(&b, "\nSQL used:\n%s\n", sqlCode)
	}
	if len(ds.FollowupSamples) > 0 {
		fmt.Fprintf(&b, "\nExample followups for this dataset:\n- %s\n", strings.Join(ds.FollowupSamples, "\n- "))
	}
	b.WriteString("\n")
	b.WriteString(formatInstructions)
	return b.String()
}

// Parse extracts and decodes a summary payload from raw model output. A chart
// given as an empty object is treated as absent.
func Parse(raw string) (*models.Summary, error) {
	text, err := react.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	// Detect `"visualization": {}` before decoding, since an empty Chart
	// would otherwise fail validation instead of meaning "no chart".
	var probe struct {
		Visualization json.RawMessage `json:"visualization"`
	}
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}

	var s models.Summary
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, fmt.Errorf("payload does not match the expected shape: %w", err)
	}

	if strings.TrimSpace(string(probe.Visualization)) == "{}" {
		s.Visualization = nil
	}
	if s.Followups == nil {
		s.Followups = []models.Followup{}
	}
	return &s, nil
}

func applyForcedFields(ds *datasource.Descriptor, s *models.Summary) {
	if ds.ForcesEmpty("sqlCode") {
		s.SQLCode = ""
	}
	if ds.ForcesEmpty("visualization") {
		s.Visualization = nil
	}
	if ds.ForcesEmpty("viewVisualization") {
		s.ViewVisualization = false
	}
}
