package warehouse

import (
	"strings"
	"testing"
)

func TestResultRender(t *testing.T) {
	t.Run("renders header and rows", func(t *testing.T) {
		r := &Result{
			Columns: []string{"county", "clinics"},
			Rows:    [][]string{{"Adams", "4"}, {"Brown", "2"}},
		}
		out := r.Render()
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "county | clinics" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != "Adams | 4" {
			t.Errorf("unexpected row %q", lines[1])
		}
	})

	t.Run("empty result says so", func(t *testing.T) {
		r := &Result{Columns: []string{"a"}}
		if out := r.Render(); !strings.Contains(out, "no rows") {
			t.Errorf("expected empty-result message, got %q", out)
		}
	})

	t.Run("truncation is noted", func(t *testing.T) {
		r := &Result{
			Columns:   []string{"a"},
			Rows:      [][]string{{"1"}},
			Truncated: true,
		}
		if out := r.Render(); !strings.Contains(out, "truncated") {
			t.Errorf("expected truncation note, got %q", out)
		}
	})
}
