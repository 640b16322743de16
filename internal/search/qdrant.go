package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex implements Index on a Qdrant cluster.
type QdrantIndex struct {
	client   *qdrant.Client
	embedder Embedder
}

// NewQdrantClient connects to a Qdrant cluster.
func NewQdrantClient(host string, port int, apiKey string, useTLS bool) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return client, nil
}

// NewQdrantIndex creates an Index backed by the given client and embedder.
func NewQdrantIndex(client *qdrant.Client, embedder Embedder) *QdrantIndex {
	return &QdrantIndex{client: client, embedder: embedder}
}

func (q *QdrantIndex) query(ctx context.Context, collection string, vector []float32, filter *qdrant.Filter, topK uint64) ([]*qdrant.ScoredPoint, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          &topK,
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query on %s failed: %w", collection, err)
	}
	return points, nil
}

// Columns searches column descriptions, optionally restricted to one table.
func (q *QdrantIndex) Columns(ctx context.Context, collection, query, table string, topK uint64) ([]ColumnHit, error) {
	vector, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	var filter *qdrant.Filter
	if table != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("targettable", table)},
		}
	}

	points, err := q.query(ctx, collection, vector, filter, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]ColumnHit, 0, len(points))
	for _, point := range points {
		hit := ColumnHit{Score: point.Score}
		if val, ok := point.Payload["targettable"]; ok {
			hit.Table = val.GetStringValue()
		}
		if val, ok := point.Payload["columnname"]; ok {
			hit.Column = val.GetStringValue()
		}
		if val, ok := point.Payload["description"]; ok {
			hit.Description = val.GetStringValue()
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Sections searches documentation sections and expands every hit to the full
// set of sections for its source file, ordered by section number.
func (q *QdrantIndex) Sections(ctx context.Context, collection, query string, topK uint64) ([]SectionHit, error) {
	vector, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	points, err := q.query(ctx, collection, vector, nil, topK)
	if err != nil {
		return nil, err
	}

	// Collect the distinct source files of the initial hits in score order.
	seen := make(map[string]bool)
	var files []string
	scores := make(map[string]float32)
	for _, point := range points {
		name := point.Payload["filename"].GetStringValue()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		files = append(files, name)
		scores[name] = point.Score
	}

	var hits []SectionHit
	for _, name := range files {
		sections, err := q.fileSections(ctx, collection, vector, name)
		if err != nil {
			return nil, err
		}
		for i := range sections {
			sections[i].Score = scores[name]
		}
		hits = append(hits, sections...)
	}
	return hits, nil
}

const maxFileSections = 64

func (q *QdrantIndex) fileSections(ctx context.Context, collection string, vector []float32, file string) ([]SectionHit, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("filename", file)},
	}
	limit := uint64(maxFileSections)
	points, err := q.query(ctx, collection, vector, filter, limit)
	if err != nil {
		return nil, err
	}

	sections := make([]SectionHit, 0, len(points))
	for _, point := range points {
		section := SectionHit{FileName: file}
		if val, ok := point.Payload["sectionnumber"]; ok {
			section.SectionNumber = int(val.GetIntegerValue())
		}
		if val, ok := point.Payload["content"]; ok {
			section.Content = val.GetStringValue()
		}
		sections = append(sections, section)
	}
	sort.Slice(sections, func(i, j int) bool {
		return sections[i].SectionNumber < sections[j].SectionNumber
	})
	return sections, nil
}
