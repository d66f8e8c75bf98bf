package reconcile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/reelink/reelink/internal/catalog"
	"github.com/reelink/reelink/internal/store"
)

// Scanner drives reconciliation passes over the source tree.
type Scanner struct {
	store  *store.Store
	rec    *Reconciler
	source string
	logger zerolog.Logger
}

// NewScanner creates a scan driver over the reconciler's source root.
func NewScanner(st *store.Store, rec *Reconciler, sourceDir string, logger zerolog.Logger) *Scanner {
	return &Scanner{
		store:  st,
		rec:    rec,
		source: sourceDir,
		logger: logger.With().Str("component", "scanner").Logger(),
	}
}

// Pass runs one reconciliation pass. A quick pass visits only the immediate
// subfolders of the source root and skips folders already marked processed;
// a full pass walks every subfolder and revisits processed ones.
func (s *Scanner) Pass(ctx context.Context, quick bool) error {
	index, err := s.buildIndex(ctx)
	if err != nil {
		return err
	}
	solutions, err := s.store.ResolvedSolutions(ctx)
	if err != nil {
		return err
	}
	s.rec.BeginPass(index, solutions)

	if err := s.rec.EnsureDestDirs(); err != nil {
		return err
	}

	var processed map[string]struct{}
	if quick {
		processed, err = s.store.ProcessedFolderKeys(ctx)
		if err != nil {
			return err
		}
	}

	dirs, err := s.collectFolders(quick)
	if err != nil {
		return err
	}

	// files handled this pass; a folder touched twice is not relinked
	visited := make(map[string]struct{})

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := folderKey(dir)
		if _, done := processed[key]; quick && done {
			continue
		}

		if err := s.store.UpsertProcessedFolder(ctx, key, store.FolderProcessing); err != nil {
			s.logger.Error().Err(err).Str("folder", key).Msg("Failed to mark folder processing")
			continue
		}

		if s.rec.ProcessFolder(ctx, dir, visited) {
			if err := s.store.UpsertProcessedFolder(ctx, key, store.FolderProcessed); err != nil {
				s.logger.Error().Err(err).Str("folder", key).Msg("Failed to mark folder processed")
			}
		} else {
			s.logger.Info().Str("folder", key).Msg("Folder incomplete, will retry next pass")
		}
	}
	return nil
}

// buildIndex rebuilds the in-memory catalog index from the cached catalog.
func (s *Scanner) buildIndex(ctx context.Context) (*catalog.Index, error) {
	rows, err := s.store.CatalogEntries(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]catalog.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, catalog.Entry{
			Title:      row.Title,
			ExternalID: row.ExternalID,
			Year:       row.Year,
		})
	}
	s.logger.Debug().Int("entries", len(entries)).Msg("Rebuilt catalog index")
	return catalog.Build(entries), nil
}

// collectFolders lists the folders a pass will visit, in stable order.
func (s *Scanner) collectFolders(quick bool) ([]string, error) {
	if quick {
		entries, err := os.ReadDir(s.source)
		if err != nil {
			return nil, err
		}
		var dirs []string
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(s.source, entry.Name()))
			}
		}
		return dirs, nil
	}

	var dirs []string
	err := filepath.WalkDir(s.source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Walk error, skipping")
			return nil
		}
		if !d.IsDir() || path == s.source {
			return nil
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}
