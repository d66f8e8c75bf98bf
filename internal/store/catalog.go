package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UpsertCatalogEntry refreshes one cached catalog title.
func (s *Store) UpsertCatalogEntry(ctx context.Context, externalID, title string, year int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_cache (external_id, title, year)
		VALUES (?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year`,
		externalID, title, nullableYear(year))
	if err != nil {
		return fmt.Errorf("failed to upsert catalog entry: %w", err)
	}
	return nil
}

// CatalogEntries returns the full cached catalog in insertion order. The
// catalog index is rebuilt from this at the start of every scan pass.
func (s *Store) CatalogEntries(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, title, year FROM catalog_cache ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		var year sql.NullInt64
		if err := rows.Scan(&e.ExternalID, &e.Title, &year); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		e.Year = int(year.Int64)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableYear(year int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(year), Valid: year > 0}
}
