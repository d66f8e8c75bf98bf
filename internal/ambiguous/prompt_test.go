package ambiguous

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/reelink/reelink/internal/store"
)

func TestConsolePrompter(t *testing.T) {
	match := store.AmbiguousMatch{
		OriginalName: "Show",
		FolderPaths:  []string{"/src/Show S01"},
	}
	candidates := []string{"Show A (2020) {id-1}", "Show B (2021) {id-2}"}

	var out bytes.Buffer
	p := NewConsolePrompter(strings.NewReader("2\n"), &out)

	action, err := p.Prompt(match, candidates)
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	if action.Kind != ActionChoose || action.Index != 1 {
		t.Errorf("Prompt() = %+v, want choose index 1", action)
	}

	rendered := out.String()
	for _, candidate := range candidates {
		if !strings.Contains(rendered, candidate) {
			t.Errorf("output missing candidate %q", candidate)
		}
	}
	if !strings.Contains(rendered, "Show") {
		t.Error("output missing match name")
	}
}

func TestConsolePrompter_EOF(t *testing.T) {
	p := NewConsolePrompter(strings.NewReader(""), io.Discard)

	action, err := p.Prompt(store.AmbiguousMatch{OriginalName: "Show"}, []string{"A"})
	if !errors.Is(err, io.EOF) {
		t.Errorf("Prompt() error = %v, want io.EOF", err)
	}
	if action.Kind != ActionSkip {
		t.Errorf("Prompt() action = %+v, want skip", action)
	}
}
