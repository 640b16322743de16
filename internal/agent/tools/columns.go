package tools

import (
	"context"
	"strings"

	"dataexplorer/internal/search"
)

const columnTopK = 15

// SearchColumns retrieves column descriptions from a datasource's metadata
// index. The collection is fixed at construction; the optional "table:" prefix
// on the input scopes the search to one table.
type SearchColumns struct {
	index      search.Index
	collection string
}

// NewSearchColumns creates the column retrieval tool for one collection.
func NewSearchColumns(index search.Index, collection string) *SearchColumns {
	return &SearchColumns{index: index, collection: collection}
}

func (t *SearchColumns) Name() string { return "search_columns" }

func (t *SearchColumns) Description() string {
	return "Find relevant table columns by description. Input is a natural language phrase; prefix with 'table:<name> ' to restrict to one table."
}

func (t *SearchColumns) Execute(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	table := ""
	if rest, ok := strings.CutPrefix(query, "table:"); ok {
		parts := strings.SplitN(rest, " ", 2)
		table = parts[0]
		if len(parts) == 2 {
			query = strings.TrimSpace(parts[1])
		} else {
			query = ""
		}
	}
	if query == "" {
		return "Error: search_columns requires a search phrase as input.", nil
	}
	hits, err := t.index.Columns(ctx, t.collection, query, table, columnTopK)
	if err != nil {
		return "", err
	}
	return search.RenderColumns(hits), nil
}
