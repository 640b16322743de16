package search

import (
	"strings"
	"testing"
)

func TestRenderColumns(t *testing.T) {
	t.Run("no hits", func(t *testing.T) {
		if got := RenderColumns(nil); got != "No matching columns found." {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("one line per hit", func(t *testing.T) {
		hits := []ColumnHit{
			{Table: "visits", Column: "county", Description: "County of the facility"},
			{Table: "visits", Column: "year", Description: "Reporting year"},
		}
		out := RenderColumns(hits)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		if lines[0] != "table=visits column=county: County of the facility" {
			t.Errorf("unexpected line %q", lines[0])
		}
	})
}

func TestRenderSections(t *testing.T) {
	t.Run("no hits", func(t *testing.T) {
		if got := RenderSections(nil); got != "No matching documentation found." {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("groups consecutive sections by file", func(t *testing.T) {
		hits := []SectionHit{
			{FileName: "hierarchy.md", SectionNumber: 1, Content: "first"},
			{FileName: "hierarchy.md", SectionNumber: 2, Content: "second"},
			{FileName: "codes.md", SectionNumber: 1, Content: "codes"},
		}
		out := RenderSections(hits)
		if strings.Count(out, "--- hierarchy.md ---") != 1 {
			t.Errorf("expected a single header per file, got:\n%s", out)
		}
		headerIdx := strings.Index(out, "--- codes.md ---")
		secondIdx := strings.Index(out, "second")
		if headerIdx < secondIdx {
			t.Errorf("file header out of order:\n%s", out)
		}
		if !strings.Contains(out, "first\nsecond\n") {
			t.Errorf("sections not in order:\n%s", out)
		}
	})
}
