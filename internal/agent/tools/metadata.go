package tools

import (
	"context"
)

// MetadataProvider supplies the rendered schema snapshot for a datasource.
type MetadataProvider interface {
	Snapshot(ctx context.Context, datasource string) (string, error)
}

// FetchMetadata returns table schemas and sample rows for the datasource the
// tool was built for.
type FetchMetadata struct {
	provider   MetadataProvider
	datasource string
}

// NewFetchMetadata creates the metadata tool bound to one datasource.
func NewFetchMetadata(provider MetadataProvider, datasource string) *FetchMetadata {
	return &FetchMetadata{provider: provider, datasource: datasource}
}

func (t *FetchMetadata) Name() string { return "fetch_metadata" }

func (t *FetchMetadata) Description() string {
	return "Get the table schemas and sample rows for this datasource. Input is ignored."
}

func (t *FetchMetadata) Execute(ctx context.Context, _ string) (string, error) {
	return t.provider.Snapshot(ctx, t.datasource)
}
