package datasource

import (
	"embed"
	"fmt"
	"path"
)

//go:embed config/mappings/*.md
var mappingFiles embed.FS

// MappingFiles returns the embedded hierarchy mapping files keyed by file
// name, for the read_mapping_file tool.
func MappingFiles() (map[string]string, error) {
	entries, err := mappingFiles.ReadDir("config/mappings")
	if err != nil {
		return nil, fmt.Errorf("read mapping files: %w", err)
	}

	files := make(map[string]string, len(entries))
	for _, entry := range entries {
		data, err := mappingFiles.ReadFile(path.Join("config/mappings", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read mapping file %s: %w", entry.Name(), err)
		}
		files[entry.Name()] = string(data)
	}
	return files, nil
}
