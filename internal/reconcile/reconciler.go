// Package reconcile turns resolved titles into a stable symlink layout:
// classified source folders are linked into Cleaned/Uncleaned destination
// trees, recorded in the store, and never reworked when nothing changed.
package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reelink/reelink/internal/catalog"
	"github.com/reelink/reelink/internal/mediainfo"
	"github.com/reelink/reelink/internal/resolver"
	"github.com/reelink/reelink/internal/store"
)

const (
	cleanedDirName   = "Cleaned"
	uncleanedDirName = "Uncleaned"
	extrasDirName    = "Extras"

	unknownName = "unknown"
)

// Layout holds the source tree and destination roots.
type Layout struct {
	SourceDir    string
	TVDestDir    string
	MovieDestDir string
}

// Reconciler makes the destination trees match the resolved state of the
// source tree, idempotently.
type Reconciler struct {
	store    *store.Store
	resolver *resolver.Resolver
	prober   *mediainfo.Prober
	layout   Layout
	logger   zerolog.Logger

	// pass-scoped state, set by BeginPass
	index     *catalog.Index
	solutions map[string]string
}

// New creates a reconciler.
func New(st *store.Store, res *resolver.Resolver, prober *mediainfo.Prober, layout Layout, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:    st,
		resolver: res,
		prober:   prober,
		layout:   layout,
		logger:   logger.With().Str("component", "reconcile").Logger(),
	}
}

// BeginPass installs the pass-scoped catalog index and the solutions of
// already-resolved ambiguous matches. The index is rebuilt from the cached
// catalog at the start of every pass.
func (r *Reconciler) BeginPass(index *catalog.Index, solutions map[string]string) {
	r.index = index
	r.solutions = solutions
}

// EnsureDestDirs creates the Cleaned/Uncleaned roots under both
// destination trees.
func (r *Reconciler) EnsureDestDirs() error {
	for _, dir := range []string{
		filepath.Join(r.layout.TVDestDir, cleanedDirName),
		filepath.Join(r.layout.TVDestDir, uncleanedDirName),
		filepath.Join(r.layout.MovieDestDir, cleanedDirName),
		filepath.Join(r.layout.MovieDestDir, uncleanedDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// ProcessFolder reconciles one source folder. Returns true when every file
// was handled; false means the folder must be retried on a later pass.
func (r *Reconciler) ProcessFolder(ctx context.Context, dir string, visited map[string]struct{}) bool {
	files, err := listFiles(dir)
	if err != nil {
		r.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to list folder")
		return false
	}

	folderName := filepath.Base(dir)
	if r.isEpisodicFolder(folderName, files) {
		return r.processEpisodicFolder(ctx, dir, folderName, files, visited)
	}
	return r.processMovieFolder(ctx, dir, files, visited)
}

// isEpisodicFolder applies the classification rule: episodic when any
// filename carries an episode token or the folder name has a Season marker.
// A movie folder holding a sample clip named with a season-like token is
// knowingly misclassified by this rule.
func (r *Reconciler) isEpisodicFolder(folderName string, files []string) bool {
	if isSeasonFolderName(folderName) {
		return true
	}
	for _, file := range files {
		if hasEpisodeToken(file) {
			return true
		}
	}
	return false
}

// processMovieFolder links every file into the movie Uncleaned tree with no
// title resolution.
func (r *Reconciler) processMovieFolder(ctx context.Context, dir string, files []string, visited map[string]struct{}) bool {
	complete := true
	for _, file := range files {
		src := filepath.Join(dir, file)
		if _, seen := visited[src]; seen {
			continue
		}
		visited[src] = struct{}{}

		dest, ok := r.mirrorLink(src, r.layout.MovieDestDir)
		if !ok {
			complete = false
			continue
		}
		if dest == "" {
			continue // occupied by real content, counts as handled
		}
		if err := r.store.UpsertMediaItem(ctx, src, dest, ""); err != nil {
			r.logger.Error().Err(err).Str("source", src).Msg("Failed to record media item")
		}
	}
	return complete
}

// processEpisodicFolder links episodes and extras under the resolved title.
// Resolution is attempted once per folder; failure skips the remaining
// files so the folder retries on the next pass.
func (r *Reconciler) processEpisodicFolder(ctx context.Context, dir, folderName string, files []string, visited map[string]struct{}) bool {
	title := ""
	titleResolved := false
	titleAttempted := false
	failedName := ""

	resolveOnce := func(showName string) bool {
		if titleAttempted {
			return titleResolved
		}
		titleAttempted = true
		title, titleResolved = r.resolveFolderTitle(ctx, showName, folderName, dir)
		if !titleResolved {
			failedName = showName
		}
		return titleResolved
	}

	for _, file := range files {
		src := filepath.Join(dir, file)
		if _, seen := visited[src]; seen {
			continue
		}
		visited[src] = struct{}{}

		ref, hasToken := parseEpisodeToken(file)
		if !hasToken {
			// no token in an episodic folder: an extra for this show
			if !resolveOnce(deriveShowNameFromPath(dir)) {
				r.abandonFolder(ctx, dir, failedName)
				return false
			}
			r.linkExtra(ctx, src, file, title)
			continue
		}

		showName := deriveShowName(file, folderName)
		if showName == "" {
			r.logUnrecognized(ctx, src)
			continue
		}

		if !resolveOnce(showName) {
			r.abandonFolder(ctx, dir, failedName)
			return false
		}

		r.linkEpisode(ctx, src, file, folderName, title, ref)
	}
	return true
}

// resolveFolderTitle runs the resolution ladder for a folder's show name:
// previously resolved solution, catalog index with year, external resolver
// with year, then both again without the year constraint.
func (r *Reconciler) resolveFolderTitle(ctx context.Context, showName, folderName, dir string) (string, bool) {
	year := extractFolderYear(folderName)
	if year == 0 {
		year = extractTrailingYear(showName)
	}
	name := stripTrailingYear(showName)

	// A name that was nothing but a year: search by the year text itself.
	if name == "" && year != 0 {
		name = strconv.Itoa(year)
		year = 0
	}

	// Queue rows are keyed by the stripped show name (resolver failures) or
	// the raw folder name (folder-level failures); check both.
	if solution, ok := r.solutionFor(name, folderName); ok {
		return sanitizeTitleSegment(solution), true
	}
	if name == "" {
		return "", false
	}

	if title, ok := r.lookupOnce(ctx, name, year, dir); ok {
		return title, true
	}
	if year != 0 {
		if title, ok := r.lookupOnce(ctx, name, 0, dir); ok {
			return title, true
		}
	}
	return "", false
}

// solutionFor finds a previously resolved solution under any of the given
// queue keys.
func (r *Reconciler) solutionFor(keys ...string) (string, bool) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if solution, ok := r.solutions[key]; ok {
			return solution, true
		}
	}
	return "", false
}

// lookupOnce tries the catalog index first and falls back to the external
// resolver.
func (r *Reconciler) lookupOnce(ctx context.Context, name string, year int, dir string) (string, bool) {
	normalized := catalog.Normalize(name)
	r.logger.Debug().Str("query", normalized).Int("year", year).Msg("Searching catalog index")

	if r.index != nil {
		if hits := r.index.Search(normalized, year); len(hits) > 0 {
			best := hits[0].Entry
			title := resolver.CanonicalTitle(best.Title, best.Year, best.ExternalID)
			return sanitizeTitleSegment(title), true
		}
	}

	r.logger.Debug().Str("query", name).Int("year", year).Msg("Falling back to external lookup")
	if title, ok := r.resolver.ResolveSeries(ctx, name, year, dir); ok {
		return sanitizeTitleSegment(title), true
	}
	return "", false
}

// ApplySolution relinks a previously ambiguous folder under a chosen
// canonical title. Every file below the folder is linked: episode files
// under the title's season folders, everything else as extras. The folder
// is marked processed when done.
func (r *Reconciler) ApplySolution(ctx context.Context, dir, solution string) error {
	title := sanitizeTitleSegment(solution)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("Walk error, skipping")
			return nil
		}
		if info.IsDir() {
			return nil
		}
		file := filepath.Base(path)
		if ref, ok := parseEpisodeToken(file); ok {
			r.linkEpisode(ctx, path, file, filepath.Base(filepath.Dir(path)), title, ref)
		} else {
			r.linkExtra(ctx, path, file, title)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := r.store.UpsertProcessedFolder(ctx, folderKey(dir), store.FolderProcessed); err != nil {
		r.logger.Error().Err(err).Str("dir", dir).Msg("Failed to mark folder processed")
	}
	return nil
}

// abandonFolder records the folder-level failure. Placeholder names are not
// worth queuing for a human.
func (r *Reconciler) abandonFolder(ctx context.Context, dir, showName string) {
	r.logger.Info().Str("dir", dir).Str("name", showName).Msg("Folder title unresolved, skipping remaining files")
	if showName == "" || strings.EqualFold(showName, unknownName) {
		return
	}
	folderName := filepath.Base(dir)
	if err := r.store.EnqueueAmbiguousMatch(ctx, folderName, []string{resolver.NoResultsSentinel}, dir); err != nil {
		r.logger.Error().Err(err).Str("folder", folderName).Msg("Failed to enqueue folder failure")
	}
}

// linkEpisode links one episode file under the cleaned tree and mirrors it
// into the uncleaned tree.
func (r *Reconciler) linkEpisode(ctx context.Context, src, file, folderName, title string, ref episodeRef) {
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	searchable := strings.ReplaceAll(base, ".", " ")

	res := extractResolutionToken(searchable, folderName)
	if res == "" && r.prober != nil {
		res = r.prober.ResolutionLabel(ctx, src)
	}

	destName := title + " - " + ref.Token()
	if res != "" {
		destName += " [" + res + "]"
	}
	destName = cleanFilename(destName) + ext

	dest := filepath.Join(r.layout.TVDestDir, cleanedDirName, title, ref.SeasonFolder(), destName)

	outcome, err := ensureSymlink(src, dest)
	if err != nil {
		r.logger.Error().Err(err).Str("source", src).Str("dest", dest).Msg("Failed to link episode")
		return
	}
	r.logOutcome(outcome, src, dest)
	if outcome == linkSkipped {
		return
	}

	if _, ok := r.mirrorLink(src, r.layout.TVDestDir); !ok {
		r.logger.Warn().Str("source", src).Msg("Failed to mirror into uncleaned tree")
	}

	if err := r.store.UpsertMediaItem(ctx, src, dest, resolver.ExternalIDFromTitle(title)); err != nil {
		r.logger.Error().Err(err).Str("source", src).Msg("Failed to record media item")
	}
}

// linkExtra links a non-episode file under the title's Extras folder and
// mirrors it into the uncleaned tree like every other linked file.
func (r *Reconciler) linkExtra(ctx context.Context, src, file, title string) {
	dest := filepath.Join(r.layout.TVDestDir, cleanedDirName, title, extrasDirName, file)

	outcome, err := ensureSymlink(src, dest)
	if err != nil {
		r.logger.Error().Err(err).Str("source", src).Str("dest", dest).Msg("Failed to link extra")
		return
	}
	r.logOutcome(outcome, src, dest)
	if outcome == linkSkipped {
		return
	}

	if _, ok := r.mirrorLink(src, r.layout.TVDestDir); !ok {
		r.logger.Warn().Str("source", src).Msg("Failed to mirror into uncleaned tree")
	}

	if err := r.store.UpsertMediaItem(ctx, src, dest, resolver.ExternalIDFromTitle(title)); err != nil {
		r.logger.Error().Err(err).Str("source", src).Msg("Failed to record media item")
	}
}

// mirrorLink links src into the destination's Uncleaned tree, mirroring its
// path relative to the source root. Returns ("", true) when the destination
// is occupied by real content, and ("", false) on error.
func (r *Reconciler) mirrorLink(src, destRoot string) (string, bool) {
	rel, err := filepath.Rel(r.layout.SourceDir, src)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(src)
	}
	dest := filepath.Join(destRoot, uncleanedDirName, rel)

	outcome, err := ensureSymlink(src, dest)
	if err != nil {
		r.logger.Error().Err(err).Str("source", src).Str("dest", dest).Msg("Failed to create uncleaned link")
		return "", false
	}
	r.logOutcome(outcome, src, dest)
	if outcome == linkSkipped {
		return "", true
	}
	return dest, true
}

func (r *Reconciler) logOutcome(outcome linkOutcome, src, dest string) {
	switch outcome {
	case linkCreated:
		r.logger.Info().Str("dest", dest).Str("source", src).Msg("Created symlink")
	case linkReplaced:
		r.logger.Info().Str("dest", dest).Str("source", src).Msg("Replaced stale symlink")
	case linkSkipped:
		r.logger.Debug().Str("dest", dest).Msg("Destination occupied, skipping")
	}
}

func (r *Reconciler) logUnrecognized(ctx context.Context, src string) {
	r.logger.Info().Str("source", src).Msg("Unrecognized filename pattern, leaving unlinked")
	if err := r.store.LogUnrecognizedPattern(ctx, src); err != nil {
		r.logger.Error().Err(err).Str("source", src).Msg("Failed to log unrecognized pattern")
	}
}

// deriveShowNameFromPath derives a show name from a folder path when no
// filename offers one: the parent folder name when usable, otherwise the
// folder's own name, stripped of season and release noise.
func deriveShowNameFromPath(dir string) string {
	folderName := filepath.Base(dir)
	parentName := filepath.Base(filepath.Dir(dir))

	// Season folders carry no show name of their own; use the parent's.
	name := folderName
	if isSeasonFolderName(folderName) && !strings.EqualFold(parentName, unknownName) {
		name = parentName
	}

	cleaned, _ := resolver.CleanQuery(name)
	if cleaned == "" {
		return unknownName
	}
	return sanitizeShowName(cleaned)
}

// sanitizeTitleSegment strips path separators from a resolved title before
// it becomes a path segment.
func sanitizeTitleSegment(title string) string {
	return strings.ReplaceAll(title, "/", "")
}

// listFiles returns the names of regular files in dir in directory-listing
// order (sorted, as os.ReadDir yields).
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}
