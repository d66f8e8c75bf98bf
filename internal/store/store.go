// Package store persists reconciliation state: media items, processed
// folders, the ambiguous-match queue, and the cached title catalog.
// Every call is a short, independent transaction; filesystem state remains
// the source of truth and rows here are advisory.
package store

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Store provides access to persisted reconciliation state.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New creates a new store.
func New(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// MediaItem mirrors one created symlink back to its source file.
type MediaItem struct {
	ID         int64
	SourcePath string
	LinkPath   string
	ExternalID string // empty when the link was made without title resolution
	Deprecated bool
}

// ProcessedFolderStatus values for processed_folders.status.
const (
	FolderProcessing = "processing"
	FolderProcessed  = "processed"
)

// ProcessedFolder records per-folder scan progress.
type ProcessedFolder struct {
	FolderKey string
	Status    string
}

// AmbiguousMatch is a queued name that resolution could not settle.
type AmbiguousMatch struct {
	ID           int64
	OriginalName string
	Candidates   []string
	Solution     string // empty while pending
	FolderPaths  []string
}

// CatalogEntry is one cached catalog title.
type CatalogEntry struct {
	ExternalID string
	Title      string
	Year       int // 0 when unknown
}
