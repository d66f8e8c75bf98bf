package store_test

import (
	"context"
	"testing"

	"github.com/reelink/reelink/internal/store"
	"github.com/reelink/reelink/internal/testutil"
)

func TestUpsertMediaItem(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	st := tdb.Store
	ctx := context.Background()

	src := "/mnt/media/Show/ep1.mkv"
	if err := st.UpsertMediaItem(ctx, src, "/dest/old.mkv", "123"); err != nil {
		t.Fatalf("UpsertMediaItem() error = %v", err)
	}
	if err := st.UpsertMediaItem(ctx, src, "/dest/new.mkv", "456"); err != nil {
		t.Fatalf("UpsertMediaItem() second error = %v", err)
	}

	item, err := st.GetMediaItem(ctx, src)
	if err != nil {
		t.Fatalf("GetMediaItem() error = %v", err)
	}
	if item.LinkPath != "/dest/new.mkv" {
		t.Errorf("LinkPath = %q, want /dest/new.mkv", item.LinkPath)
	}
	if item.ExternalID != "456" {
		t.Errorf("ExternalID = %q, want 456", item.ExternalID)
	}

	items, err := st.ListMediaItems(ctx)
	if err != nil {
		t.Fatalf("ListMediaItems() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("ListMediaItems() returned %d items, want 1 after upsert", len(items))
	}
}

func TestGetMediaItem_NotFound(t *testing.T) {
	tdb := testutil.NewTestDB(t)

	_, err := tdb.Store.GetMediaItem(context.Background(), "/nope")
	if err != store.ErrNotFound {
		t.Errorf("GetMediaItem() error = %v, want ErrNotFound", err)
	}
}

func TestMarkRootDeprecated_PathSegmentAware(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	st := tdb.Store
	ctx := context.Background()

	paths := []string{
		"/mnt/a/show/ep1.mkv",
		"/mnt/a/other/ep2.mkv",
		"/mnt/ab/other.mkv",
	}
	for _, p := range paths {
		if err := st.UpsertMediaItem(ctx, p, "/dest/"+p, "1"); err != nil {
			t.Fatalf("UpsertMediaItem(%q) error = %v", p, err)
		}
	}

	if err := st.MarkRootDeprecated(ctx, "/mnt/a"); err != nil {
		t.Fatalf("MarkRootDeprecated() error = %v", err)
	}

	wantDeprecated := map[string]bool{
		"/mnt/a/show/ep1.mkv":  true,
		"/mnt/a/other/ep2.mkv": true,
		"/mnt/ab/other.mkv":    false,
	}
	for path, want := range wantDeprecated {
		item, err := st.GetMediaItem(ctx, path)
		if err != nil {
			t.Fatalf("GetMediaItem(%q) error = %v", path, err)
		}
		if item.Deprecated != want {
			t.Errorf("Deprecated(%q) = %v, want %v", path, item.Deprecated, want)
		}
	}

	// reactivation restores the same subtree
	if err := st.MarkRootActive(ctx, "/mnt/a"); err != nil {
		t.Fatalf("MarkRootActive() error = %v", err)
	}
	item, err := st.GetMediaItem(ctx, "/mnt/a/show/ep1.mkv")
	if err != nil {
		t.Fatalf("GetMediaItem() error = %v", err)
	}
	if item.Deprecated {
		t.Error("item still deprecated after MarkRootActive()")
	}
}

func TestMarkRootDeprecated_ExactPath(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	st := tdb.Store
	ctx := context.Background()

	if err := st.UpsertMediaItem(ctx, "/mnt/a", "/dest/a", ""); err != nil {
		t.Fatalf("UpsertMediaItem() error = %v", err)
	}
	if err := st.MarkRootDeprecated(ctx, "/mnt/a"); err != nil {
		t.Fatalf("MarkRootDeprecated() error = %v", err)
	}

	item, err := st.GetMediaItem(ctx, "/mnt/a")
	if err != nil {
		t.Fatalf("GetMediaItem() error = %v", err)
	}
	if !item.Deprecated {
		t.Error("exact-path item not deprecated")
	}
}

func TestActiveRoots(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	st := tdb.Store
	ctx := context.Background()

	for _, p := range []string{"/mnt/a/s1/e1.mkv", "/mnt/a/s1/e2.mkv", "/mnt/b/m1.mkv"} {
		if err := st.UpsertMediaItem(ctx, p, "/dest"+p, ""); err != nil {
			t.Fatalf("UpsertMediaItem(%q) error = %v", p, err)
		}
	}
	if err := st.MarkRootDeprecated(ctx, "/mnt/b"); err != nil {
		t.Fatalf("MarkRootDeprecated() error = %v", err)
	}

	roots, err := st.ActiveRoots(ctx)
	if err != nil {
		t.Fatalf("ActiveRoots() error = %v", err)
	}
	if len(roots) != 1 || roots[0] != "/mnt/a/s1" {
		t.Errorf("ActiveRoots() = %v, want [/mnt/a/s1]", roots)
	}
}

func TestDistinctExternalIDs(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	st := tdb.Store
	ctx := context.Background()

	fixtures := map[string]string{
		"/src/a.mkv": "123",
		"/src/b.mkv": "123",
		"/src/c.mkv": "456",
		"/src/d.mkv": "", // unresolved movie link
	}
	for path, id := range fixtures {
		if err := st.UpsertMediaItem(ctx, path, "/dest"+path, id); err != nil {
			t.Fatalf("UpsertMediaItem(%q) error = %v", path, err)
		}
	}

	ids, err := st.DistinctExternalIDs(ctx)
	if err != nil {
		t.Fatalf("DistinctExternalIDs() error = %v", err)
	}
	want := []string{"123", "456"}
	if len(ids) != len(want) {
		t.Fatalf("DistinctExternalIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestProcessedFolderLifecycle(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	st := tdb.Store
	ctx := context.Background()

	if err := st.UpsertProcessedFolder(ctx, "media/Show S01", store.FolderProcessing); err != nil {
		t.Fatalf("UpsertProcessedFolder() error = %v", err)
	}

	keys, err := st.ProcessedFolderKeys(ctx)
	if err != nil {
		t.Fatalf("ProcessedFolderKeys() error = %v", err)
	}
	if _, ok := keys["media/Show S01"]; ok {
		t.Error("processing folder reported as processed")
	}

	if err := st.UpsertProcessedFolder(ctx, "media/Show S01", store.FolderProcessed); err != nil {
		t.Fatalf("UpsertProcessedFolder() error = %v", err)
	}
	keys, err = st.ProcessedFolderKeys(ctx)
	if err != nil {
		t.Fatalf("ProcessedFolderKeys() error = %v", err)
	}
	if _, ok := keys["media/Show S01"]; !ok {
		t.Error("processed folder missing from key set")
	}
}

func TestAmbiguousMatchLifecycle(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	st := tdb.Store
	ctx := context.Background()

	candidates := []string{"Show A (2020) {id-1}", "Show B (2021) {id-2}"}
	if err := st.EnqueueAmbiguousMatch(ctx, "Show", candidates, "/src/Show S01"); err != nil {
		t.Fatalf("EnqueueAmbiguousMatch() error = %v", err)
	}
	// same name from another folder joins the existing row
	if err := st.EnqueueAmbiguousMatch(ctx, "Show", candidates, "/src/Show S02"); err != nil {
		t.Fatalf("EnqueueAmbiguousMatch() second error = %v", err)
	}
	// duplicate folder path is not appended twice
	if err := st.EnqueueAmbiguousMatch(ctx, "Show", candidates, "/src/Show S01"); err != nil {
		t.Fatalf("EnqueueAmbiguousMatch() third error = %v", err)
	}

	pending, err := st.PendingAmbiguousMatches(ctx)
	if err != nil {
		t.Fatalf("PendingAmbiguousMatches() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending count = %d, want 1", len(pending))
	}
	match := pending[0]
	if match.OriginalName != "Show" {
		t.Errorf("OriginalName = %q", match.OriginalName)
	}
	if len(match.FolderPaths) != 2 {
		t.Errorf("FolderPaths = %v, want 2 paths", match.FolderPaths)
	}
	if len(match.Candidates) != 2 {
		t.Errorf("Candidates = %v, want 2", match.Candidates)
	}

	if err := st.SetAmbiguousSolution(ctx, match.ID, candidates[0]); err != nil {
		t.Fatalf("SetAmbiguousSolution() error = %v", err)
	}

	pending, err = st.PendingAmbiguousMatches(ctx)
	if err != nil {
		t.Fatalf("PendingAmbiguousMatches() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending count after solution = %d, want 0", len(pending))
	}

	solutions, err := st.ResolvedSolutions(ctx)
	if err != nil {
		t.Fatalf("ResolvedSolutions() error = %v", err)
	}
	if solutions["Show"] != candidates[0] {
		t.Errorf("ResolvedSolutions()[Show] = %q, want %q", solutions["Show"], candidates[0])
	}

	if err := st.DeleteAmbiguousMatch(ctx, match.ID); err != nil {
		t.Fatalf("DeleteAmbiguousMatch() error = %v", err)
	}
	// deleting again is a no-op
	if err := st.DeleteAmbiguousMatch(ctx, match.ID); err != nil {
		t.Errorf("DeleteAmbiguousMatch() repeat error = %v", err)
	}
	solutions, err = st.ResolvedSolutions(ctx)
	if err != nil {
		t.Fatalf("ResolvedSolutions() error = %v", err)
	}
	if len(solutions) != 0 {
		t.Errorf("solutions after delete = %v, want empty", solutions)
	}
}

func TestCatalogEntries(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	st := tdb.Store
	ctx := context.Background()

	if err := st.UpsertCatalogEntry(ctx, "123", "Show Name", 2020); err != nil {
		t.Fatalf("UpsertCatalogEntry() error = %v", err)
	}
	if err := st.UpsertCatalogEntry(ctx, "456", "Other Show", 0); err != nil {
		t.Fatalf("UpsertCatalogEntry() error = %v", err)
	}
	// renaming updates in place
	if err := st.UpsertCatalogEntry(ctx, "123", "Show Name Renamed", 2020); err != nil {
		t.Fatalf("UpsertCatalogEntry() rename error = %v", err)
	}

	entries, err := st.CatalogEntries(ctx)
	if err != nil {
		t.Fatalf("CatalogEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("CatalogEntries() returned %d entries, want 2", len(entries))
	}
	if entries[0].Title != "Show Name Renamed" {
		t.Errorf("entries[0].Title = %q, want renamed title", entries[0].Title)
	}
	if entries[1].Year != 0 {
		t.Errorf("entries[1].Year = %d, want 0 for unknown", entries[1].Year)
	}
}
