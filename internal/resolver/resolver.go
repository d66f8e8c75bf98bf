// Package resolver turns a cleaned media name into exactly one canonical
// title string, or signals ambiguity by enqueuing the candidates for human
// resolution.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reelink/reelink/internal/metadata/tmdb"
)

// AcceptThreshold is the similarity score a lone best candidate must exceed
// (strictly) to be accepted without human confirmation.
const AcceptThreshold = 90

// NoResultsSentinel is queued as the only candidate when lookup returned
// nothing at all.
const NoResultsSentinel = "No results found"

var externalIDPattern = regexp.MustCompile(`\{id-([^}]+)\}`)

// Lookup is the external title-lookup collaborator.
type Lookup interface {
	SearchSeries(ctx context.Context, query string, year int) ([]tmdb.SeriesResult, error)
	GetSeries(ctx context.Context, id int) (*tmdb.SeriesResult, error)
}

// Queue receives ambiguous matches the resolver could not settle.
type Queue interface {
	EnqueueAmbiguousMatch(ctx context.Context, originalName string, candidates []string, folderPath string) error
}

// Resolver resolves names against the external lookup with fuzzy scoring.
type Resolver struct {
	lookup Lookup
	queue  Queue
	cache  *memoCache
	logger zerolog.Logger
}

// New creates a resolver with a bounded memo cache of the given size.
func New(lookup Lookup, queue Queue, cacheSize int, logger zerolog.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		queue:  queue,
		cache:  newMemoCache(cacheSize),
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// ResolveSeries resolves a raw show name (optionally with a known year) to a
// canonical title string. The second return is false when the name was
// ambiguous and has been queued instead; lookup failures count as no results.
func (r *Resolver) ResolveSeries(ctx context.Context, rawName string, year int, folderPath string) (string, bool) {
	query, extractedYear := CleanQuery(rawName)
	if year == 0 {
		year = extractedYear
	}
	if query == "" {
		return "", false
	}

	if title, ok := r.cache.get(query, year); ok {
		return title, true
	}

	results := r.searchWithYearShift(ctx, query, year)

	if len(results) == 0 {
		r.logger.Info().Str("query", query).Int("year", year).Msg("No lookup results")
		r.enqueue(ctx, rawName, []string{NoResultsSentinel}, folderPath)
		return "", false
	}

	// Exact title match bypasses fuzzy scoring.
	for _, result := range results {
		if strings.EqualFold(result.Title, query) {
			title := CanonicalTitle(result.Title, result.Year, strconv.Itoa(result.ID))
			r.cache.put(query, year, title)
			return title, true
		}
	}

	best := results[0]
	bestScore := -1
	for _, result := range results {
		score := Ratio(strings.ToLower(query), strings.ToLower(result.Title))
		if score > bestScore {
			best = result
			bestScore = score
		}
	}

	if bestScore > AcceptThreshold {
		title := CanonicalTitle(best.Title, best.Year, strconv.Itoa(best.ID))
		r.logger.Debug().
			Str("query", query).
			Str("title", title).
			Int("score", bestScore).
			Msg("Auto-accepted candidate")
		r.cache.put(query, year, title)
		return title, true
	}

	candidates := make([]string, len(results))
	for i, result := range results {
		candidates[i] = CanonicalTitle(result.Title, result.Year, strconv.Itoa(result.ID))
	}
	r.logger.Info().
		Str("query", query).
		Int("candidates", len(candidates)).
		Int("bestScore", bestScore).
		Msg("Ambiguous match queued")
	r.enqueue(ctx, rawName, candidates, folderPath)
	return "", false
}

// ResolveByID resolves an external id directly to a canonical title.
func (r *Resolver) ResolveByID(ctx context.Context, externalID string) (string, error) {
	id, err := strconv.Atoi(externalID)
	if err != nil {
		return "", fmt.Errorf("invalid external id %q: %w", externalID, err)
	}
	result, err := r.lookup.GetSeries(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to look up id %s: %w", externalID, err)
	}
	return CanonicalTitle(result.Title, result.Year, externalID), nil
}

// SearchCandidates performs a free-text search and returns canonical
// candidate strings, for the resolution workflow's re-search action.
func (r *Resolver) SearchCandidates(ctx context.Context, query string) []string {
	results, err := r.lookup.SearchSeries(ctx, query, 0)
	if err != nil {
		r.logger.Warn().Err(err).Str("query", query).Msg("Lookup failed, treating as no results")
		return nil
	}
	candidates := make([]string, len(results))
	for i, result := range results {
		candidates[i] = CanonicalTitle(result.Title, result.Year, strconv.Itoa(result.ID))
	}
	return candidates
}

// searchWithYearShift searches with the known year, then year+1 and year-1
// to absorb off-by-one air-date/folder-year mismatches.
func (r *Resolver) searchWithYearShift(ctx context.Context, query string, year int) []tmdb.SeriesResult {
	results := r.search(ctx, query, year)
	if len(results) == 0 && year > 0 {
		r.logger.Debug().Str("query", query).Int("year", year+1).Msg("Retrying with shifted year")
		results = r.search(ctx, query, year+1)
	}
	if len(results) == 0 && year > 0 {
		r.logger.Debug().Str("query", query).Int("year", year-1).Msg("Retrying with shifted year")
		results = r.search(ctx, query, year-1)
	}
	return results
}

func (r *Resolver) search(ctx context.Context, query string, year int) []tmdb.SeriesResult {
	results, err := r.lookup.SearchSeries(ctx, query, year)
	if err != nil {
		r.logger.Warn().Err(err).Str("query", query).Msg("Lookup failed, treating as no results")
		return nil
	}
	return results
}

func (r *Resolver) enqueue(ctx context.Context, originalName string, candidates []string, folderPath string) {
	if err := r.queue.EnqueueAmbiguousMatch(ctx, originalName, candidates, folderPath); err != nil {
		r.logger.Error().Err(err).Str("name", originalName).Msg("Failed to enqueue ambiguous match")
	}
}

// CanonicalTitle formats the canonical title string used as a path segment.
func CanonicalTitle(name string, year int, externalID string) string {
	yearText := "Unknown Year"
	if year > 0 {
		yearText = strconv.Itoa(year)
	}
	return fmt.Sprintf("%s (%s) {id-%s}", name, yearText, externalID)
}

// ExternalIDFromTitle extracts the external id from a canonical title
// string, empty when absent.
func ExternalIDFromTitle(title string) string {
	if m := externalIDPattern.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}
