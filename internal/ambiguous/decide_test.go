package ambiguous

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		numCandidates int
		want          Action
	}{
		{"choose first", "1", 3, Action{Kind: ActionChoose, Index: 0}},
		{"choose last", "3", 3, Action{Kind: ActionChoose, Index: 2}},
		{"choose with whitespace", "  2  ", 3, Action{Kind: ActionChoose, Index: 1}},
		{"zero skips", "0", 3, Action{Kind: ActionSkip}},
		{"empty skips", "", 3, Action{Kind: ActionSkip}},
		{"skip keyword", "skip", 3, Action{Kind: ActionSkip}},
		{"skip keyword case insensitive", "SKIP", 3, Action{Kind: ActionSkip}},
		{"out of range", "4", 3, Action{Kind: ActionInvalid}},
		{"negative", "-1", 3, Action{Kind: ActionInvalid}},
		{"garbage", "wat", 3, Action{Kind: ActionInvalid}},
		{"manual id", "id 456", 3, Action{Kind: ActionManualID, ID: "456"}},
		{"manual id uppercase", "ID 456", 3, Action{Kind: ActionManualID, ID: "456"}},
		{"manual id non numeric", "id abc", 3, Action{Kind: ActionInvalid}},
		{"manual id missing", "id ", 3, Action{Kind: ActionInvalid}},
		{"search", "search the office", 3, Action{Kind: ActionSearch, Query: "the office"}},
		{"search empty", "search ", 3, Action{Kind: ActionInvalid}},
		{"no candidates means no numeric choice", "1", 0, Action{Kind: ActionInvalid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.input, tt.numCandidates); got != tt.want {
				t.Errorf("Decide(%q, %d) = %+v, want %+v", tt.input, tt.numCandidates, got, tt.want)
			}
		})
	}
}
