// Package metadata fetches warehouse table schemas and sample rows for the
// retrieval prompts and the metadata endpoint.
package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"dataexplorer/internal/datasource"
	"dataexplorer/internal/warehouse"
)

// maxWorkers bounds concurrent warehouse introspection queries.
const maxWorkers = 10

const sampleRows = 5

// TableInfo is the schema and sample of one table.
type TableInfo struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
	Sample string `json:"sample"`
}

// Service introspects warehouse tables per data source.
type Service struct {
	executor warehouse.Executor
	registry *datasource.Registry
	logger   *slog.Logger
}

// NewService creates a metadata Service.
func NewService(executor warehouse.Executor, registry *datasource.Registry, logger *slog.Logger) *Service {
	return &Service{executor: executor, registry: registry, logger: logger}
}

// Describe fetches schema and sample rows for every table of the data source.
// Tables run concurrently under a bounded worker pool; a table whose
// introspection fails is omitted rather than failing the whole set.
func (s *Service) Describe(ctx context.Context, dsName string) ([]TableInfo, error) {
	ds, err := s.registry.Get(dsName)
	if err != nil {
		return nil, err
	}
	if len(ds.Tables) == 0 {
		return []TableInfo{}, nil
	}

	names := make([]string, 0, len(ds.Tables))
	for name := range ds.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]*TableInfo, len(names))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(index int, table string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			info, err := s.describeTable(ctx, ds, table)
			if err != nil {
				s.logger.Warn("omitting table from metadata",
					slog.String("data_source", ds.Name),
					slog.String("table", table),
					slog.String("error", err.Error()))
				return
			}
			results[index] = info
		}(i, name)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos := []TableInfo{}
	for _, info := range results {
		if info != nil {
			infos = append(infos, *info)
		}
	}
	return infos, nil
}

func (s *Service) describeTable(ctx context.Context, ds *datasource.Descriptor, table string) (*TableInfo, error) {
	qualified := ds.Tables[table]
	if ds.Schema != "" && !strings.Contains(qualified, ".") {
		qualified = ds.Schema + "." + qualified
	}

	schema, err := s.executor.Query(ctx, "DESCRIBE TABLE "+qualified)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", qualified, err)
	}
	sample, err := s.executor.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, sampleRows))
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", qualified, err)
	}

	return &TableInfo{
		Name:   table,
		Schema: schema.Render(),
		Sample: sample.Render(),
	}, nil
}

// Snapshot renders the full metadata of a data source as observation text for
// the fetch_metadata tool.
func (s *Service) Snapshot(ctx context.Context, dsName string) (string, error) {
	infos, err := s.Describe(ctx, dsName)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "No table metadata available.", nil
	}

	var b strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&b, "=== %s ===\nSchema:\n%s\nSample rows:\n%s\n", info.Name, info.Schema, info.Sample)
	}
	return b.String(), nil
}
