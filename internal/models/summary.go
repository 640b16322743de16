package models

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Followup types a single suggested follow-up question.
type Followup struct {
	Type  string `json:"type"` // "sql", "visualization" or "general"
	Label string `json:"label"`
}

// Validate implements schema validation for a followup entry.
func (f Followup) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Type, validation.Required, validation.In("sql", "visualization", "general")),
		validation.Field(&f.Label, validation.Required),
	)
}

// SeriesData holds chart y-values, which the model may emit either as one flat
// numeric series or as a list of series (multi-series charts). The flat form
// is kept distinct so it round-trips exactly as received.
type SeriesData struct {
	Flat  []float64
	Multi [][]float64
}

// IsMulti reports whether the data carries more than one series.
func (s SeriesData) IsMulti() bool {
	return s.Multi != nil
}

func (s SeriesData) MarshalJSON() ([]byte, error) {
	if s.Multi != nil {
		return json.Marshal(s.Multi)
	}
	if s.Flat == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Flat)
}

func (s *SeriesData) UnmarshalJSON(data []byte) error {
	var multi [][]float64
	if err := json.Unmarshal(data, &multi); err == nil {
		s.Multi = multi
		s.Flat = nil
		return nil
	}
	var flat []float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("y must be a numeric array or an array of numeric arrays: %w", err)
	}
	s.Flat = flat
	s.Multi = nil
	return nil
}

// Chart is the optional visualization payload of a turn summary.
type Chart struct {
	Type   string     `json:"type"` // "bar", "pie" or "line"
	X      []string   `json:"x"`
	Y      SeriesData `json:"y"`
	XLabel *string    `json:"xlabel,omitempty"`
	YLabel *string    `json:"ylabel,omitempty"`
	Title  string     `json:"title"`
	Series []string   `json:"series,omitempty"`
}

// Validate enforces the chart schema: known type, non-empty axes, and every
// y series matching len(x).
func (c Chart) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("bar", "pie", "line")),
		validation.Field(&c.X, validation.Required),
		validation.Field(&c.Y, validation.By(c.validateSeries)),
		validation.Field(&c.Title, validation.Required),
	)
}

func (c Chart) validateSeries(value interface{}) error {
	series, ok := value.(SeriesData)
	if !ok {
		return fmt.Errorf("invalid series data")
	}
	if series.IsMulti() {
		if len(series.Multi) == 0 {
			return fmt.Errorf("y must not be empty")
		}
		for i, inner := range series.Multi {
			if len(inner) != len(c.X) {
				return fmt.Errorf("y[%d] has %d values, x has %d", i, len(inner), len(c.X))
			}
		}
		return nil
	}
	if len(series.Flat) == 0 {
		return fmt.Errorf("y must not be empty")
	}
	if len(series.Flat) != len(c.X) {
		return fmt.Errorf("y has %d values, x has %d", len(series.Flat), len(c.X))
	}
	return nil
}

// Summary is the machine-parseable result of one turn: the SQL used, an
// optional chart, follow-up suggestions, and whether the user asked for a
// visualization. Stored verbatim on the turn record.
type Summary struct {
	SQLCode           string     `json:"sqlCode"`
	Visualization     *Chart     `json:"visualization"`
	Followups         []Followup `json:"followups"`
	ViewVisualization bool       `json:"viewVisualization"`
}

// MaxFollowups caps follow-up suggestions per summary. Five are requested from
// the model so one can be dropped by the schema cap.
const MaxFollowups = 4

// Validate enforces the summary schema.
func (s Summary) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Followups, validation.Length(0, MaxFollowups)),
		validation.Field(&s.Visualization),
	)
}

// DefaultSummary returns the safe empty summary used when validation and
// repair are both exhausted.
func DefaultSummary() Summary {
	return Summary{
		SQLCode:           "",
		Visualization:     nil,
		Followups:         []Followup{},
		ViewVisualization: false,
	}
}
