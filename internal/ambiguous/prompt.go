package ambiguous

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reelink/reelink/internal/store"
)

// Prompter collects one decision from the operator for a pending match.
type Prompter interface {
	Prompt(match store.AmbiguousMatch, candidates []string) (Action, error)
}

// ConsolePrompter renders candidate tables and reads decisions from a
// terminal, or from any reader/writer pair in tests.
type ConsolePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewConsolePrompter creates a prompter over the given streams.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Prompt shows the match and its candidates and parses one line of input.
// io.EOF is returned when the input stream ends, which callers treat as
// skipping everything that remains.
func (p *ConsolePrompter) Prompt(match store.AmbiguousMatch, candidates []string) (Action, error) {
	fmt.Fprintf(p.out, "\nResolving %q (%d folder(s) affected)\n", match.OriginalName, len(match.FolderPaths))

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"#", "Candidate"})
	for i, candidate := range candidates {
		t.AppendRow(table.Row{i + 1, candidate})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	fmt.Fprintf(p.out, "Choose [1-%d], 'id <number>', 'search <text>', or 'skip': ", len(candidates))

	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return Action{Kind: ActionSkip}, err
		}
		return Action{Kind: ActionSkip}, io.EOF
	}
	return Decide(p.in.Text(), len(candidates)), nil
}
