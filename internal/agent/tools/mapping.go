package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ReadMappingFile serves curated hierarchy mapping files by name. The files
// are loaded at construction so lookups never touch disk on the request path.
type ReadMappingFile struct {
	files map[string]string
}

// NewReadMappingFile creates the mapping file tool over the given file set.
func NewReadMappingFile(files map[string]string) *ReadMappingFile {
	return &ReadMappingFile{files: files}
}

func (t *ReadMappingFile) Name() string { return "read_mapping_file" }

func (t *ReadMappingFile) Description() string {
	return fmt.Sprintf("Read a hierarchy mapping file. Input is the file name, one of: %s.", strings.Join(t.names(), ", "))
}

func (t *ReadMappingFile) names() []string {
	names := make([]string, 0, len(t.files))
	for name := range t.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *ReadMappingFile) Execute(_ context.Context, input string) (string, error) {
	name := strings.TrimSpace(input)
	content, ok := t.files[name]
	if !ok {
		return fmt.Sprintf("Error: unknown mapping file %q. Available files: %s", name, strings.Join(t.names(), ", ")), nil
	}
	return content, nil
}
