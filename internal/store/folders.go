package store

import (
	"context"
	"fmt"
)

// UpsertProcessedFolder records scan progress for a folder key.
func (s *Store) UpsertProcessedFolder(ctx context.Context, folderKey, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_folders (folder_key, status)
		VALUES (?, ?)
		ON CONFLICT(folder_key) DO UPDATE SET
			status = excluded.status,
			updated_at = datetime('now')`,
		folderKey, status)
	if err != nil {
		return fmt.Errorf("failed to upsert processed folder: %w", err)
	}
	return nil
}

// ProcessedFolderKeys returns the set of folder keys that reached the
// processed status. Quick scans skip these.
func (s *Store) ProcessedFolderKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT folder_key FROM processed_folders WHERE status = ?`, FolderProcessed)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed folders: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan folder key: %w", err)
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

// LogUnrecognizedPattern records a filename that no parse rule matched.
// These are parse failures, kept apart from search ambiguity.
func (s *Store) LogUnrecognizedPattern(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unrecognized_patterns (filename) VALUES (?)`, filename)
	if err != nil {
		return fmt.Errorf("failed to log unrecognized pattern: %w", err)
	}
	return nil
}
