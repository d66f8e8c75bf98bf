package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// EnqueueAmbiguousMatch records a name whose resolution produced no confident
// answer. If a pending row already exists for the same original name, the
// folder path is appended to its set instead of inserting a duplicate.
func (s *Store) EnqueueAmbiguousMatch(ctx context.Context, originalName string, candidates []string, folderPath string) error {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, folder_paths FROM ambiguous_matches
		WHERE original_name = ? AND solution IS NULL`, originalName)

	var id int64
	var folderPathsJSON string
	err := row.Scan(&id, &folderPathsJSON)
	switch {
	case err == sql.ErrNoRows:
		candidatesJSON, err := json.Marshal(candidates)
		if err != nil {
			return fmt.Errorf("failed to encode candidates: %w", err)
		}
		pathsJSON, err := json.Marshal([]string{folderPath})
		if err != nil {
			return fmt.Errorf("failed to encode folder paths: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO ambiguous_matches (original_name, candidates, folder_paths)
			VALUES (?, ?, ?)`,
			originalName, string(candidatesJSON), string(pathsJSON))
		if err != nil {
			return fmt.Errorf("failed to insert ambiguous match: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up ambiguous match: %w", err)
	}

	var paths []string
	if err := json.Unmarshal([]byte(folderPathsJSON), &paths); err != nil {
		paths = nil
	}
	for _, p := range paths {
		if p == folderPath {
			return nil
		}
	}
	paths = append(paths, folderPath)
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("failed to encode folder paths: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE ambiguous_matches SET folder_paths = ? WHERE id = ?`,
		string(pathsJSON), id)
	if err != nil {
		return fmt.Errorf("failed to append folder path: %w", err)
	}
	return nil
}

// PendingAmbiguousMatches returns every match with no solution yet.
func (s *Store) PendingAmbiguousMatches(ctx context.Context) ([]AmbiguousMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, original_name, candidates, solution, folder_paths
		FROM ambiguous_matches WHERE solution IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending matches: %w", err)
	}
	defer rows.Close()
	return scanAmbiguousMatches(rows)
}

// ResolvedAmbiguousMatches returns rows whose solution is set but which
// were not deleted yet: a crash or relink failure between storing the
// solution and deleting the row leaves these behind, and the resolution
// workflow replays them before touching the pending queue.
func (s *Store) ResolvedAmbiguousMatches(ctx context.Context) ([]AmbiguousMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, original_name, candidates, solution, folder_paths
		FROM ambiguous_matches WHERE solution IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolved matches: %w", err)
	}
	defer rows.Close()
	return scanAmbiguousMatches(rows)
}

// ResolvedSolutions returns original name -> solution for every resolved
// match still present in the queue.
func (s *Store) ResolvedSolutions(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT original_name, solution FROM ambiguous_matches
		WHERE solution IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolved matches: %w", err)
	}
	defer rows.Close()

	solutions := make(map[string]string)
	for rows.Next() {
		var name, solution string
		if err := rows.Scan(&name, &solution); err != nil {
			return nil, fmt.Errorf("failed to scan resolved match: %w", err)
		}
		solutions[name] = solution
	}
	return solutions, rows.Err()
}

// SetAmbiguousSolution stores the chosen solution on a match.
func (s *Store) SetAmbiguousSolution(ctx context.Context, id int64, solution string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ambiguous_matches SET solution = ? WHERE id = ?`, solution, id)
	if err != nil {
		return fmt.Errorf("failed to set solution: %w", err)
	}
	return nil
}

// DeleteAmbiguousMatch removes a match once its folder paths have been
// reconciled. Deleting an already-deleted id is a no-op.
func (s *Store) DeleteAmbiguousMatch(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ambiguous_matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ambiguous match: %w", err)
	}
	return nil
}

func scanAmbiguousMatches(rows *sql.Rows) ([]AmbiguousMatch, error) {
	var matches []AmbiguousMatch
	for rows.Next() {
		var m AmbiguousMatch
		var candidatesJSON, folderPathsJSON string
		var solution sql.NullString
		if err := rows.Scan(&m.ID, &m.OriginalName, &candidatesJSON, &solution, &folderPathsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan ambiguous match: %w", err)
		}
		m.Solution = solution.String
		// Malformed rows keep their identity but lose their lists; the
		// resolution workflow re-searches in that case.
		if err := json.Unmarshal([]byte(candidatesJSON), &m.Candidates); err != nil {
			m.Candidates = nil
		}
		if err := json.Unmarshal([]byte(folderPathsJSON), &m.FolderPaths); err != nil {
			m.FolderPaths = nil
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
