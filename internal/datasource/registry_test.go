package datasource

import (
	"errors"
	"testing"

	"dataexplorer/internal/domain"
)

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"ahrf", "hpsa", "merative", "sohea", "dqddma", "research"} {
		if !registry.Has(name) {
			t.Errorf("expected data source %s configured", name)
		}
	}
}

func TestRegistryGet(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("case insensitive lookup", func(t *testing.T) {
		ds, err := registry.Get("AHRF")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ds.Name != "ahrf" {
			t.Errorf("expected ahrf, got %q", ds.Name)
		}
		if !ds.Structured {
			t.Error("expected ahrf marked structured")
		}
	})

	t.Run("unknown source is not found", func(t *testing.T) {
		_, err := registry.Get("nope")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})

	t.Run("research forces presentation fields empty", func(t *testing.T) {
		ds, err := registry.Get("research")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ds.Structured {
			t.Error("expected research non-structured")
		}
		for _, field := range []string{"sqlCode", "visualization", "viewVisualization"} {
			if !ds.ForcesEmpty(field) {
				t.Errorf("expected research to force %s empty", field)
			}
		}
		if ds.SectionIndex == "" {
			t.Error("expected research section index configured")
		}
		if ds.QueryInstructions == "" {
			t.Error("expected research document loop instructions configured")
		}
	})

	t.Run("survey source runs the classifiers", func(t *testing.T) {
		ds, err := registry.Get("sohea")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ds.ClassifyDenominator {
			t.Error("expected sohea to classify denominators")
		}
		if ds.HierarchyInstructions == "" {
			t.Error("expected sohea hierarchy mapping instructions configured")
		}
	})

	t.Run("every structured source declares its tables", func(t *testing.T) {
		for _, name := range registry.Names() {
			ds, err := registry.Get(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ds.Structured {
				continue
			}
			if ds.Schema == "" || len(ds.Tables) == 0 {
				t.Errorf("source %s has no warehouse layout: schema=%q tables=%d", name, ds.Schema, len(ds.Tables))
			}
			if ds.QueryInstructions == "" || ds.ColumnInstructions == "" || ds.RephraseInstructions == "" {
				t.Errorf("source %s is missing stage instructions", name)
			}
		}
	})

	t.Run("every source carries a rate card", func(t *testing.T) {
		for _, name := range registry.Names() {
			ds, err := registry.Get(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ds.Rates.InputPerMTok <= 0 || ds.Rates.OutputPerMTok <= 0 {
				t.Errorf("source %s has no usable rates: %+v", name, ds.Rates)
			}
			if ds.ApplicationName == "" {
				t.Errorf("source %s has no application name", name)
			}
		}
	})
}

func TestMappingFiles(t *testing.T) {
	files, err := MappingFiles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded mapping files")
	}
	for name, content := range files {
		if content == "" {
			t.Errorf("mapping file %s is empty", name)
		}
	}
}
