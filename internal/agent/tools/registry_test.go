package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type echoTool struct {
	name string
	err  error
}

func (t *echoTool) Name() string        { return t.name }
func (t *echoTool) Description() string { return "echoes its input" }

func (t *echoTool) Execute(_ context.Context, input string) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return "echo: " + input, nil
}

func TestRegistryExecute(t *testing.T) {
	t.Run("dispatches to the registered tool", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&echoTool{name: "echo"})

		got := r.Execute(context.Background(), "echo", "hello")
		if got != "echo: hello" {
			t.Errorf("expected 'echo: hello', got %q", got)
		}
	})

	t.Run("unknown tool yields observation not panic", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&echoTool{name: "echo"})

		got := r.Execute(context.Background(), "missing", "x")
		if !strings.Contains(got, "unknown tool") {
			t.Errorf("expected unknown tool observation, got %q", got)
		}
		if !strings.Contains(got, "echo") {
			t.Errorf("expected available tool list in observation, got %q", got)
		}
	})

	t.Run("tool failure is folded into the observation", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&echoTool{name: "broken", err: errors.New("boom")})

		got := r.Execute(context.Background(), "broken", "x")
		if !strings.Contains(got, "boom") {
			t.Errorf("expected error text in observation, got %q", got)
		}
	})

	t.Run("re-registering replaces without duplicating order", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&echoTool{name: "echo"})
		r.Register(&echoTool{name: "echo"})

		if names := r.Names(); len(names) != 1 {
			t.Errorf("expected 1 name, got %v", names)
		}
	})
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry()
	r.Register(&echoTool{name: "a"})
	r.Register(&echoTool{name: "b"})

	desc := r.Describe()
	aIdx := strings.Index(desc, "- a:")
	bIdx := strings.Index(desc, "- b:")
	if aIdx < 0 || bIdx < 0 || aIdx > bIdx {
		t.Errorf("expected tools listed in registration order, got %q", desc)
	}
}

func TestReadMappingFile(t *testing.T) {
	tool := NewReadMappingFile(map[string]string{"regions.md": "north, south"})

	out, err := tool.Execute(context.Background(), "regions.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "north, south" {
		t.Errorf("expected file content, got %q", out)
	}

	out, err = tool.Execute(context.Background(), "nope.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "regions.md") {
		t.Errorf("expected available file list in observation, got %q", out)
	}
}
