package catalog

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/reelink/reelink/internal/metadata/tmdb"
)

// SyncSource looks up current series details by id.
type SyncSource interface {
	GetSeries(ctx context.Context, id int) (*tmdb.SeriesResult, error)
}

// SyncStore is the catalog cache the syncer refreshes.
type SyncStore interface {
	DistinctExternalIDs(ctx context.Context) ([]string, error)
	UpsertCatalogEntry(ctx context.Context, externalID, title string, year int) error
}

// Syncer refreshes the cached catalog from the external source, so the
// index picks up renamed titles for ids the library already links.
type Syncer struct {
	store  SyncStore
	source SyncSource
	logger zerolog.Logger
}

// NewSyncer creates a catalog syncer.
func NewSyncer(st SyncStore, source SyncSource, logger zerolog.Logger) *Syncer {
	return &Syncer{
		store:  st,
		source: source,
		logger: logger.With().Str("component", "catalogsync").Logger(),
	}
}

// Refresh fetches current details for every external id present in the
// library and upserts them into the catalog cache. Individual lookup
// failures are logged and skipped; the rest of the refresh proceeds.
func (s *Syncer) Refresh(ctx context.Context) error {
	ids, err := s.store.DistinctExternalIDs(ctx)
	if err != nil {
		return err
	}

	refreshed := 0
	for _, externalID := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		id, err := strconv.Atoi(externalID)
		if err != nil {
			s.logger.Warn().Str("externalId", externalID).Msg("Skipping non-numeric external id")
			continue
		}
		result, err := s.source.GetSeries(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("externalId", externalID).Msg("Lookup failed, keeping cached entry")
			continue
		}
		if err := s.store.UpsertCatalogEntry(ctx, externalID, result.Title, result.Year); err != nil {
			s.logger.Error().Err(err).Str("externalId", externalID).Msg("Failed to update catalog entry")
			continue
		}
		refreshed++
	}

	s.logger.Info().Int("refreshed", refreshed).Int("total", len(ids)).Msg("Catalog refresh complete")
	return nil
}
