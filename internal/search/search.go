// Package search provides vector retrieval over the column-metadata and
// documentation indexes that ground the retrieval agents.
package search

import (
	"context"
	"fmt"
	"strings"
)

// ColumnHit is one retrieved column-description point.
type ColumnHit struct {
	Table       string
	Column      string
	Description string
	Score       float32
}

// SectionHit is one retrieved documentation section. Sections belonging to
// the same source file share FileName and are ordered by SectionNumber.
type SectionHit struct {
	FileName      string
	SectionNumber int
	Content       string
	Score         float32
}

// Embedder turns query text into a vector for the index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index retrieves column metadata and documentation sections by similarity.
type Index interface {
	// Columns searches the named collection for column descriptions matching
	// the query, optionally restricted to one table.
	Columns(ctx context.Context, collection, query, table string, topK uint64) ([]ColumnHit, error)

	// Sections searches the named collection for documentation sections and
	// expands each hit to every section of its source file, so the caller
	// sees whole documents rather than isolated fragments.
	Sections(ctx context.Context, collection, query string, topK uint64) ([]SectionHit, error)
}

// RenderColumns formats hits as an observation block for a model prompt.
func RenderColumns(hits []ColumnHit) string {
	if len(hits) == 0 {
		return "No matching columns found."
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "table=%s column=%s: %s\n", h.Table, h.Column, h.Description)
	}
	return b.String()
}

// RenderSections formats documentation sections grouped by file.
func RenderSections(hits []SectionHit) string {
	if len(hits) == 0 {
		return "No matching documentation found."
	}
	var b strings.Builder
	current := ""
	for _, h := range hits {
		if h.FileName != current {
			current = h.FileName
			fmt.Fprintf(&b, "--- %s ---\n", current)
		}
		b.WriteString(h.Content)
		b.WriteString("\n")
	}
	return b.String()
}
