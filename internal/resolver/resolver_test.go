package resolver

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reelink/reelink/internal/metadata/tmdb"
)

type searchCall struct {
	query string
	year  int
}

type fakeLookup struct {
	results map[searchCall][]tmdb.SeriesResult
	series  map[int]tmdb.SeriesResult
	calls   []searchCall
}

func (f *fakeLookup) SearchSeries(_ context.Context, query string, year int) ([]tmdb.SeriesResult, error) {
	call := searchCall{query, year}
	f.calls = append(f.calls, call)
	return f.results[call], nil
}

func (f *fakeLookup) GetSeries(_ context.Context, id int) (*tmdb.SeriesResult, error) {
	if result, ok := f.series[id]; ok {
		return &result, nil
	}
	return nil, fmt.Errorf("series %d not found", id)
}

type fakeQueue struct {
	names      []string
	candidates [][]string
	folders    []string
}

func (f *fakeQueue) EnqueueAmbiguousMatch(_ context.Context, originalName string, candidates []string, folderPath string) error {
	f.names = append(f.names, originalName)
	f.candidates = append(f.candidates, candidates)
	f.folders = append(f.folders, folderPath)
	return nil
}

func newTestResolver(lookup *fakeLookup, queue *fakeQueue) *Resolver {
	return New(lookup, queue, 16, zerolog.Nop())
}

func TestResolveSeries_ExactMatchShortCircuits(t *testing.T) {
	lookup := &fakeLookup{results: map[searchCall][]tmdb.SeriesResult{
		{"Show Name", 2020}: {
			{ID: 999, Title: "Show Name Extended", Year: 2018},
			{ID: 123, Title: "Show Name", Year: 2020},
		},
	}}
	queue := &fakeQueue{}
	r := newTestResolver(lookup, queue)

	title, ok := r.ResolveSeries(context.Background(), "Show Name", 2020, "/src/Show Name")
	if !ok {
		t.Fatal("ResolveSeries() ok = false, want true")
	}
	if title != "Show Name (2020) {id-123}" {
		t.Errorf("ResolveSeries() = %q", title)
	}
	if len(queue.names) != 0 {
		t.Errorf("enqueued %d matches, want 0", len(queue.names))
	}
}

func TestResolveSeries_ThresholdIsStrict(t *testing.T) {
	// distance 1 over length 10 scores exactly 90: not accepted
	lookup := &fakeLookup{results: map[searchCall][]tmdb.SeriesResult{
		{"abcdefghij", 0}: {{ID: 9, Title: "abcdefghix", Year: 2020}},
	}}
	queue := &fakeQueue{}
	r := newTestResolver(lookup, queue)

	if _, ok := r.ResolveSeries(context.Background(), "abcdefghij", 0, "/src/x"); ok {
		t.Error("score of exactly 90 was accepted, want queued")
	}
	if len(queue.names) != 1 {
		t.Fatalf("enqueued %d matches, want 1", len(queue.names))
	}
	wantCandidate := "abcdefghix (2020) {id-9}"
	if queue.candidates[0][0] != wantCandidate {
		t.Errorf("candidate = %q, want %q", queue.candidates[0][0], wantCandidate)
	}
}

func TestResolveSeries_AboveThresholdAccepted(t *testing.T) {
	// distance 1 over length 12 scores 91: accepted
	lookup := &fakeLookup{results: map[searchCall][]tmdb.SeriesResult{
		{"abcdefghijkl", 0}: {{ID: 7, Title: "abcdefghijkx", Year: 2021}},
	}}
	queue := &fakeQueue{}
	r := newTestResolver(lookup, queue)

	title, ok := r.ResolveSeries(context.Background(), "abcdefghijkl", 0, "/src/x")
	if !ok {
		t.Fatal("score of 91 was not accepted")
	}
	if title != "abcdefghijkx (2021) {id-7}" {
		t.Errorf("ResolveSeries() = %q", title)
	}
}

func TestResolveSeries_NoResultsQueuesSentinel(t *testing.T) {
	lookup := &fakeLookup{results: map[searchCall][]tmdb.SeriesResult{}}
	queue := &fakeQueue{}
	r := newTestResolver(lookup, queue)

	if _, ok := r.ResolveSeries(context.Background(), "Nowhere Show", 0, "/src/Nowhere Show"); ok {
		t.Fatal("ResolveSeries() ok = true for empty results")
	}
	if len(queue.names) != 1 {
		t.Fatalf("enqueued %d matches, want 1", len(queue.names))
	}
	if queue.candidates[0][0] != NoResultsSentinel {
		t.Errorf("candidate = %q, want sentinel", queue.candidates[0][0])
	}
	if queue.folders[0] != "/src/Nowhere Show" {
		t.Errorf("folder = %q", queue.folders[0])
	}
}

func TestResolveSeries_YearShiftRetries(t *testing.T) {
	// results exist only under year+1
	lookup := &fakeLookup{results: map[searchCall][]tmdb.SeriesResult{
		{"Late Premiere", 2021}: {{ID: 55, Title: "Late Premiere", Year: 2021}},
	}}
	queue := &fakeQueue{}
	r := newTestResolver(lookup, queue)

	title, ok := r.ResolveSeries(context.Background(), "Late Premiere", 2020, "/src/lp")
	if !ok {
		t.Fatal("ResolveSeries() ok = false, want true via shifted year")
	}
	if title != "Late Premiere (2021) {id-55}" {
		t.Errorf("ResolveSeries() = %q", title)
	}

	wantCalls := []searchCall{{"Late Premiere", 2020}, {"Late Premiere", 2021}}
	if len(lookup.calls) != len(wantCalls) {
		t.Fatalf("made %d lookup calls, want %d: %v", len(lookup.calls), len(wantCalls), lookup.calls)
	}
	for i, want := range wantCalls {
		if lookup.calls[i] != want {
			t.Errorf("call %d = %v, want %v", i, lookup.calls[i], want)
		}
	}
}

func TestResolveSeries_SuccessIsCached(t *testing.T) {
	lookup := &fakeLookup{results: map[searchCall][]tmdb.SeriesResult{
		{"Show Name", 2020}: {{ID: 123, Title: "Show Name", Year: 2020}},
	}}
	queue := &fakeQueue{}
	r := newTestResolver(lookup, queue)

	first, ok := r.ResolveSeries(context.Background(), "Show Name", 2020, "/src/a")
	if !ok {
		t.Fatal("first ResolveSeries() failed")
	}

	// wipe the backend: the second call must come from the cache
	lookup.results = nil
	second, ok := r.ResolveSeries(context.Background(), "Show Name", 2020, "/src/b")
	if !ok || second != first {
		t.Errorf("cached ResolveSeries() = %q, %v; want %q, true", second, ok, first)
	}
}

func TestResolveByID(t *testing.T) {
	lookup := &fakeLookup{series: map[int]tmdb.SeriesResult{
		123: {ID: 123, Title: "Show Name", Year: 2020},
	}}
	r := newTestResolver(lookup, &fakeQueue{})

	title, err := r.ResolveByID(context.Background(), "123")
	if err != nil {
		t.Fatalf("ResolveByID() error = %v", err)
	}
	if title != "Show Name (2020) {id-123}" {
		t.Errorf("ResolveByID() = %q", title)
	}

	if _, err := r.ResolveByID(context.Background(), "not-a-number"); err == nil {
		t.Error("ResolveByID() accepted a non-numeric id")
	}
}

func TestCanonicalTitle(t *testing.T) {
	if got := CanonicalTitle("Show Name", 2020, "123"); got != "Show Name (2020) {id-123}" {
		t.Errorf("CanonicalTitle() = %q", got)
	}
	if got := CanonicalTitle("Show Name", 0, "123"); got != "Show Name (Unknown Year) {id-123}" {
		t.Errorf("CanonicalTitle() with no year = %q", got)
	}
}

func TestExternalIDFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Show Name (2020) {id-123}", "123"},
		{"Show Name (Unknown Year) {id-9}", "9"},
		{"Show Name (2020)", ""},
	}
	for _, tt := range tests {
		if got := ExternalIDFromTitle(tt.title); got != tt.want {
			t.Errorf("ExternalIDFromTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
