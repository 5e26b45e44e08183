package catalogview

import (
	"path/filepath"
	"slices"
	"testing"

	"cinelog/internal/catalog"
	"cinelog/internal/logging"
)

func TestEngineCachesUntilRevisionChanges(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"), logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, e := range []catalog.Entry{
		{ID: 1, Title: "Alien", Genres: []string{"Horror", "Science Fiction"}},
		{ID: 2, Title: "Heat", Genres: []string{"Crime"}},
	} {
		if _, err := store.Insert(e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	engine := NewEngine(store)

	first := engine.Project(Query{Genre: "Horror"})
	if got := ids(first); !slices.Equal(got, []int64{1}) {
		t.Fatalf("projection = %v", got)
	}
	engine.Project(Query{Genre: "Horror"})
	engine.Project(Query{Sort: SortRatingDesc})
	if engine.CachedQueries() != 2 {
		t.Fatalf("cached queries = %d, want 2", engine.CachedQueries())
	}

	first[0].Title = "mutated"
	if again := engine.Project(Query{Genre: "Horror"}); again[0].Title != "Alien" {
		t.Fatal("callers must not be able to mutate cached results")
	}

	if _, err := store.Insert(catalog.Entry{ID: 3, Title: "The Thing", Genres: []string{"Horror"}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := ids(engine.Project(Query{Genre: "Horror"})); !slices.Equal(got, []int64{1, 3}) {
		t.Fatalf("projection after insert = %v", got)
	}
	if engine.CachedQueries() != 1 {
		t.Fatalf("cache should reset on mutation, got %d", engine.CachedQueries())
	}
}

func TestEngineGenres(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	engine := NewEngine(store)
	if got := engine.Genres(); !slices.Equal(got, []string{AllGenres}) {
		t.Fatalf("empty catalog genres = %v", got)
	}
	for _, e := range []catalog.Entry{
		{ID: 1, Title: "A", Genres: []string{"Drama", "Crime"}},
		{ID: 2, Title: "B", Genres: []string{"Crime"}},
	} {
		if _, err := store.Insert(e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	want := []string{AllGenres, "Crime", "Drama"}
	if got := engine.Genres(); !slices.Equal(got, want) {
		t.Fatalf("genres = %v, want %v", got, want)
	}
}
