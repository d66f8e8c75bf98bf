package ambiguous

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/reelink/reelink/internal/resolver"
	"github.com/reelink/reelink/internal/store"
)

// Applier relinks a folder once its title is settled.
type Applier interface {
	ApplySolution(ctx context.Context, dir, solution string) error
}

// Workflow walks the pending ambiguous-match queue, collects a decision for
// each match, and applies the chosen solution to every affected folder.
type Workflow struct {
	store    *store.Store
	resolver *resolver.Resolver
	applier  Applier
	prompter Prompter
	logger   zerolog.Logger
}

// NewWorkflow creates a resolution workflow.
func NewWorkflow(st *store.Store, res *resolver.Resolver, applier Applier, prompter Prompter, logger zerolog.Logger) *Workflow {
	return &Workflow{
		store:    st,
		resolver: res,
		applier:  applier,
		prompter: prompter,
		logger:   logger.With().Str("component", "ambiguous").Logger(),
	}
}

// Run resolves the pending queue. In auto mode the first real candidate of
// each match is accepted without prompting; matches with nothing but the
// no-results sentinel stay pending. A decision made for one match also
// settles any later match sharing a folder path.
func (w *Workflow) Run(ctx context.Context, auto bool) error {
	// folder path -> solution decided earlier in this run
	decided := make(map[string]string)

	if err := w.replayResolved(ctx, decided); err != nil {
		return err
	}

	pending, err := w.store.PendingAmbiguousMatches(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		w.logger.Info().Msg("No pending ambiguous matches")
		return nil
	}

	for _, match := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		if solution, ok := sharedSolution(match, decided); ok {
			w.logger.Info().Str("name", match.OriginalName).Str("solution", solution).
				Msg("Adopting solution from a match sharing its folder")
			if err := w.finish(ctx, match, solution, decided); err != nil {
				return err
			}
			continue
		}

		solution, skip, err := w.decide(ctx, match, auto)
		if errors.Is(err, io.EOF) {
			w.logger.Info().Msg("Input closed, leaving remaining matches pending")
			return nil
		}
		if err != nil {
			return err
		}
		if skip {
			w.logger.Info().Str("name", match.OriginalName).Msg("Match left pending")
			continue
		}

		if err := w.finish(ctx, match, solution, decided); err != nil {
			return err
		}
	}
	return nil
}

// replayResolved finishes matches whose solution was stored but whose
// folders were never relinked (a crash or relink failure between the two
// steps). Each is re-applied and deleted before the pending queue is read.
func (w *Workflow) replayResolved(ctx context.Context, decided map[string]string) error {
	resolved, err := w.store.ResolvedAmbiguousMatches(ctx)
	if err != nil {
		return err
	}
	for _, match := range resolved {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.logger.Info().Str("name", match.OriginalName).Str("solution", match.Solution).
			Msg("Retrying relink for a previously resolved match")
		if err := w.finish(ctx, match, match.Solution, decided); err != nil {
			return err
		}
	}
	return nil
}

// decide produces a solution for one match, prompting unless auto.
func (w *Workflow) decide(ctx context.Context, match store.AmbiguousMatch, auto bool) (string, bool, error) {
	candidates := realCandidates(match.Candidates)

	if auto {
		if len(candidates) == 0 {
			return "", true, nil
		}
		w.logger.Info().Str("name", match.OriginalName).Str("solution", candidates[0]).
			Msg("Auto-accepting first candidate")
		return candidates[0], false, nil
	}

	for {
		action, err := w.prompter.Prompt(match, candidates)
		if err != nil {
			return "", true, err
		}

		switch action.Kind {
		case ActionChoose:
			return candidates[action.Index], false, nil

		case ActionManualID:
			solution, err := w.resolver.ResolveByID(ctx, action.ID)
			if err != nil {
				w.logger.Warn().Err(err).Str("id", action.ID).Msg("Manual id lookup failed")
				continue
			}
			return solution, false, nil

		case ActionSearch:
			fresh := w.resolver.SearchCandidates(ctx, action.Query)
			if len(fresh) == 0 {
				w.logger.Info().Str("query", action.Query).Msg("Search produced no results")
				continue
			}
			candidates = fresh

		case ActionSkip:
			return "", true, nil

		case ActionInvalid:
			// re-prompt
		}
	}
}

// finish records the solution, relinks every affected folder, and removes
// the match from the queue. The solution is stored before linking so an
// interrupted or failed relink is replayed on the next run instead of
// prompting again.
func (w *Workflow) finish(ctx context.Context, match store.AmbiguousMatch, solution string, decided map[string]string) error {
	if err := w.store.SetAmbiguousSolution(ctx, match.ID, solution); err != nil {
		return err
	}

	for _, dir := range match.FolderPaths {
		decided[dir] = solution
		if err := w.applier.ApplySolution(ctx, dir, solution); err != nil {
			w.logger.Error().Err(err).Str("dir", dir).Msg("Failed to relink folder, keeping match for retry")
			return nil
		}
	}

	return w.store.DeleteAmbiguousMatch(ctx, match.ID)
}

// sharedSolution finds a solution decided earlier in this run for any of
// the match's folders.
func sharedSolution(match store.AmbiguousMatch, decided map[string]string) (string, bool) {
	for _, dir := range match.FolderPaths {
		if solution, ok := decided[dir]; ok {
			return solution, true
		}
	}
	return "", false
}

// realCandidates drops the no-results sentinel; it is a marker, not a
// choosable title.
func realCandidates(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == resolver.NoResultsSentinel {
			continue
		}
		out = append(out, c)
	}
	return out
}
