package tools

import (
	"context"
	"strings"

	"dataexplorer/internal/search"
)

const docTopK = 5

// SearchDocs retrieves documentation sections from a datasource's document
// index, expanded to whole source files.
type SearchDocs struct {
	index      search.Index
	collection string
}

// NewSearchDocs creates the documentation retrieval tool for one collection.
func NewSearchDocs(index search.Index, collection string) *SearchDocs {
	return &SearchDocs{index: index, collection: collection}
}

func (t *SearchDocs) Name() string { return "search_docs" }

func (t *SearchDocs) Description() string {
	return "Search the reference documentation. Input is a natural language question. Returns the full text of the most relevant documents."
}

func (t *SearchDocs) Execute(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "Error: search_docs requires a search phrase as input.", nil
	}
	hits, err := t.index.Sections(ctx, t.collection, query, docTopK)
	if err != nil {
		return "", err
	}
	return search.RenderSections(hits), nil
}
