package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reelink/reelink/internal/metadata/tmdb"
)

type fakeSource struct {
	series map[int]tmdb.SeriesResult
}

func (f *fakeSource) GetSeries(_ context.Context, id int) (*tmdb.SeriesResult, error) {
	if result, ok := f.series[id]; ok {
		return &result, nil
	}
	return nil, fmt.Errorf("series %d not found", id)
}

type fakeSyncStore struct {
	ids      []string
	upserted map[string]Entry
}

func (f *fakeSyncStore) DistinctExternalIDs(_ context.Context) ([]string, error) {
	return f.ids, nil
}

func (f *fakeSyncStore) UpsertCatalogEntry(_ context.Context, externalID, title string, year int) error {
	if f.upserted == nil {
		f.upserted = make(map[string]Entry)
	}
	f.upserted[externalID] = Entry{Title: title, ExternalID: externalID, Year: year}
	return nil
}

func TestSyncer_Refresh(t *testing.T) {
	source := &fakeSource{series: map[int]tmdb.SeriesResult{
		123: {ID: 123, Title: "Show Name Renamed", Year: 2020},
		456: {ID: 456, Title: "Other Show", Year: 2019},
	}}
	st := &fakeSyncStore{ids: []string{"123", "456", "789", "not-a-number"}}

	syncer := NewSyncer(st, source, zerolog.Nop())
	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if len(st.upserted) != 2 {
		t.Fatalf("upserted %d entries, want 2 (failures skipped)", len(st.upserted))
	}
	if st.upserted["123"].Title != "Show Name Renamed" {
		t.Errorf("upserted[123].Title = %q", st.upserted["123"].Title)
	}
	if st.upserted["456"].Year != 2019 {
		t.Errorf("upserted[456].Year = %d", st.upserted["456"].Year)
	}
	if _, ok := st.upserted["789"]; ok {
		t.Error("failed lookup was upserted")
	}
}
