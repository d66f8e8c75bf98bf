// Package ambiguous resolves queued name matches that automatic lookup
// could not settle. Decision parsing is pure so it can be tested without a
// terminal; the prompt renders and reads, the workflow applies outcomes.
package ambiguous

import (
	"strconv"
	"strings"
)

// ActionKind classifies an operator decision.
type ActionKind int

const (
	// ActionChoose picks one of the listed candidates.
	ActionChoose ActionKind = iota
	// ActionManualID resolves by an explicitly entered external id.
	ActionManualID
	// ActionSearch re-runs the lookup with a different query.
	ActionSearch
	// ActionSkip leaves the match pending.
	ActionSkip
	// ActionInvalid means the input matched no action; re-prompt.
	ActionInvalid
)

// Action is one parsed operator decision.
type Action struct {
	Kind  ActionKind
	Index int    // candidate index for ActionChoose, zero-based
	ID    string // external id for ActionManualID
	Query string // search query for ActionSearch
}

// Decide parses operator input against the current candidate list.
//
//	<n>            choose candidate n (1-based)
//	id <number>    resolve by external id
//	search <text>  re-run lookup with a new query
//	skip / 0 / ""  leave the match pending
func Decide(input string, numCandidates int) Action {
	input = strings.TrimSpace(input)

	switch {
	case input == "" || input == "0" || strings.EqualFold(input, "skip"):
		return Action{Kind: ActionSkip}

	case hasCommand(input, "id"):
		id := strings.TrimSpace(input[2:])
		if _, err := strconv.Atoi(id); err != nil {
			return Action{Kind: ActionInvalid}
		}
		return Action{Kind: ActionManualID, ID: id}

	case hasCommand(input, "search"):
		query := strings.TrimSpace(input[6:])
		if query == "" {
			return Action{Kind: ActionInvalid}
		}
		return Action{Kind: ActionSearch, Query: query}
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > numCandidates {
		return Action{Kind: ActionInvalid}
	}
	return Action{Kind: ActionChoose, Index: n - 1}
}

func hasCommand(input, cmd string) bool {
	if len(input) <= len(cmd) {
		return false
	}
	return strings.EqualFold(input[:len(cmd)], cmd) && input[len(cmd)] == ' '
}
