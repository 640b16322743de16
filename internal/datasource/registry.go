package datasource

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"dataexplorer/internal/domain"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the descriptor for every supported data source, loaded once
// from the embedded YAML at startup.
type Registry struct {
	sources map[string]*Descriptor
	mu      sync.RWMutex
}

type registryFile struct {
	Sources map[string]*Descriptor `yaml:"sources"`
}

// NewRegistry loads the embedded data source descriptors.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/datasources.yaml")
	if err != nil {
		return nil, fmt.Errorf("read datasource config: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal datasource config: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("datasource config contains no sources")
	}

	sources := make(map[string]*Descriptor, len(file.Sources))
	for name, desc := range file.Sources {
		key := strings.ToLower(name)
		desc.Name = key
		sources[key] = desc
	}

	return &Registry{sources: sources}, nil
}

// Get returns the descriptor for a data source, keyed case-insensitively.
func (r *Registry) Get(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.sources[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown data source %s: %w", name, domain.ErrNotFound)
	}
	return desc, nil
}

// Has reports whether a data source is configured.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sources[strings.ToLower(name)]
	return ok
}

// Names returns all configured data source keys, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
