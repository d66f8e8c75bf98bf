package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// UpsertMediaItem records a created link, keyed by source path. Re-processing
// the same source updates the existing row, never duplicates it.
func (s *Store) UpsertMediaItem(ctx context.Context, sourcePath, linkPath, externalID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_items (source_path, link_path, external_id)
		VALUES (?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			link_path = excluded.link_path,
			external_id = excluded.external_id,
			updated_at = datetime('now')`,
		sourcePath, linkPath, nullableString(externalID))
	if err != nil {
		return fmt.Errorf("failed to upsert media item: %w", err)
	}
	return nil
}

// GetMediaItem retrieves a media item by source path.
func (s *Store) GetMediaItem(ctx context.Context, sourcePath string) (*MediaItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_path, link_path, external_id, deprecated
		FROM media_items WHERE source_path = ?`, sourcePath)

	item, err := scanMediaItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get media item: %w", err)
	}
	return item, nil
}

// ListMediaItems returns every media item ordered by source path.
func (s *Store) ListMediaItems(ctx context.Context) ([]MediaItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_path, link_path, external_id, deprecated
		FROM media_items ORDER BY source_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media items: %w", err)
	}
	defer rows.Close()

	var items []MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// MarkRootDeprecated flips deprecated on every media item whose source path
// lives under root. The match is path-segment aware: /mnt/a covers
// /mnt/a/show/ep1.mkv but not /mnt/ab/other.mkv.
func (s *Store) MarkRootDeprecated(ctx context.Context, root string) error {
	return s.setRootDeprecated(ctx, root, true)
}

// MarkRootActive reverses MarkRootDeprecated for the same prefix.
func (s *Store) MarkRootActive(ctx context.Context, root string) error {
	return s.setRootDeprecated(ctx, root, false)
}

func (s *Store) setRootDeprecated(ctx context.Context, root string, deprecated bool) error {
	root = strings.TrimSuffix(root, "/")
	flag := 0
	if deprecated {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE media_items SET deprecated = ?, updated_at = datetime('now')
		WHERE source_path = ? OR source_path LIKE ? ESCAPE '\'`,
		flag, root, likeEscape(root)+"/%")
	if err != nil {
		return fmt.Errorf("failed to update deprecation for %s: %w", root, err)
	}
	return nil
}

// ActiveRoots lists the distinct parent directories of all non-deprecated
// media items. Deprecated roots never appear here.
func (s *Store) ActiveRoots(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT source_path FROM media_items WHERE deprecated = 0`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active roots: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var sourcePath string
		if err := rows.Scan(&sourcePath); err != nil {
			return nil, fmt.Errorf("failed to scan source path: %w", err)
		}
		seen[filepath.Dir(sourcePath)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(seen))
	for dir := range seen {
		roots = append(roots, dir)
	}
	sort.Strings(roots)
	return roots, nil
}

// RemoveLinkEntry deletes the media item recorded for a link path. This is
// the only deletion path for media items (dangling-link cleanup).
func (s *Store) RemoveLinkEntry(ctx context.Context, linkPath string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media_items WHERE link_path = ?`, linkPath)
	if err != nil {
		return fmt.Errorf("failed to remove link entry: %w", err)
	}
	return nil
}

// DistinctExternalIDs returns every external id referenced by a media item.
func (s *Store) DistinctExternalIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT external_id FROM media_items
		WHERE external_id IS NOT NULL AND external_id != ''
		ORDER BY external_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list external ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan external id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMediaItem(row rowScanner) (*MediaItem, error) {
	var item MediaItem
	var externalID sql.NullString
	var deprecated int
	if err := row.Scan(&item.ID, &item.SourcePath, &item.LinkPath, &externalID, &deprecated); err != nil {
		return nil, err
	}
	item.ExternalID = externalID.String
	item.Deprecated = deprecated != 0
	return &item, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// likeEscape escapes LIKE metacharacters so a path is matched literally.
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
