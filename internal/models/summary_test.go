package models

import (
	"encoding/json"
	"testing"
)

func TestChartValidate(t *testing.T) {
	tests := []struct {
		name    string
		chart   Chart
		wantErr bool
	}{
		{
			name:  "matched lengths",
			chart: Chart{Type: "bar", X: []string{"a", "b"}, Y: SeriesData{Flat: []float64{3, 4}}, Title: "t"},
		},
		{
			name:    "mismatched lengths",
			chart:   Chart{Type: "bar", X: []string{"a", "b", "c"}, Y: SeriesData{Flat: []float64{3}}, Title: "t"},
			wantErr: true,
		},
		{
			name: "multi series matched",
			chart: Chart{Type: "line", X: []string{"a", "b"},
				Y: SeriesData{Multi: [][]float64{{1, 2}, {3, 4}}}, Title: "t"},
		},
		{
			name: "multi series mismatched",
			chart: Chart{Type: "line", X: []string{"a", "b"},
				Y: SeriesData{Multi: [][]float64{{1, 2}, {3}}}, Title: "t"},
			wantErr: true,
		},
		{
			name:    "unknown chart type",
			chart:   Chart{Type: "scatter", X: []string{"a"}, Y: SeriesData{Flat: []float64{1}}, Title: "t"},
			wantErr: true,
		},
		{
			name:    "missing title",
			chart:   Chart{Type: "bar", X: []string{"a"}, Y: SeriesData{Flat: []float64{1}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chart.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSummaryValidate(t *testing.T) {
	t.Run("followup type constrained", func(t *testing.T) {
		s := Summary{Followups: []Followup{{Type: "weird", Label: "x"}}}
		if err := s.Validate(); err == nil {
			t.Error("expected error for unknown followup type")
		}
	})

	t.Run("at most four followups", func(t *testing.T) {
		var followups []Followup
		for i := 0; i < MaxFollowups+1; i++ {
			followups = append(followups, Followup{Type: "general", Label: "x"})
		}
		s := Summary{Followups: followups}
		if err := s.Validate(); err == nil {
			t.Error("expected error beyond the followup cap")
		}
	})

	t.Run("default summary is valid", func(t *testing.T) {
		s := DefaultSummary()
		if err := s.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSeriesDataJSON(t *testing.T) {
	t.Run("flat series round trips", func(t *testing.T) {
		var s SeriesData
		if err := json.Unmarshal([]byte(`[1, 2, 3]`), &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s.Flat) != 3 || s.Multi != nil {
			t.Errorf("expected flat series, got %+v", s)
		}
		out, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(out) != "[1,2,3]" {
			t.Errorf("expected flat encoding, got %s", out)
		}
	})

	t.Run("nested series round trips", func(t *testing.T) {
		var s SeriesData
		if err := json.Unmarshal([]byte(`[[1, 2], [3, 4]]`), &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s.Multi) != 2 || s.Flat != nil {
			t.Errorf("expected multi series, got %+v", s)
		}
	})
}

func TestKeys(t *testing.T) {
	if got := SessionKey("u1", "s1"); got != "u1-s1" {
		t.Errorf("expected u1-s1, got %q", got)
	}
	if got := TurnKey("s1", 7); got != "s1-7" {
		t.Errorf("expected s1-7, got %q", got)
	}
}
