package searchcache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cinelog/internal/logging"
	"cinelog/internal/services"
	"cinelog/internal/testsupport"
	"cinelog/internal/tmdb"
)

func openTestCache(t *testing.T, maxAge time.Duration) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "cache", "search.db"), maxAge, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestKeyNormalizesQuery(t *testing.T) {
	if Key("  The   MATRIX ") != Key("the matrix") {
		t.Fatalf("keys differ: %q vs %q", Key("  The   MATRIX "), Key("the matrix"))
	}
}

func TestStoreAndLookup(t *testing.T) {
	cache := openTestCache(t, 24*time.Hour)
	ctx := context.Background()
	want := []tmdb.Candidate{
		{ID: 603, Title: "The Matrix", ReleaseYear: 1999, Rating: 8.2},
		{ID: 604, Title: "The Matrix Reloaded", ReleaseYear: 2003, Rating: 7.0},
	}

	if _, ok, err := cache.Lookup(ctx, "the matrix"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := cache.Store(ctx, "The Matrix", want); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok, err := cache.Lookup(ctx, "the  matrix")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("candidates = %+v", got)
	}
}

func TestExpiryAndPrune(t *testing.T) {
	cache := openTestCache(t, 30*24*time.Hour)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Store(ctx, "old", []tmdb.Candidate{{ID: 1, Title: "Old"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	now = now.Add(20 * 24 * time.Hour)
	if err := cache.Store(ctx, "recent", nil); err != nil {
		t.Fatalf("Store: %v", err)
	}
	now = now.Add(15 * 24 * time.Hour)

	if _, ok, _ := cache.Lookup(ctx, "old"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if got, ok, _ := cache.Lookup(ctx, "recent"); !ok || len(got) != 0 {
		t.Fatalf("expected cached empty result, ok=%v got=%v", ok, got)
	}
	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Entries != 2 || stats.Expired != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	removed, err := cache.Prune(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("Prune removed %d, err=%v", removed, err)
	}
	cleared, err := cache.Clear(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("Clear removed %d, err=%v", cleared, err)
	}
}

func TestZeroMaxAgeNeverExpires(t *testing.T) {
	cache := openTestCache(t, 0)
	ctx := context.Background()
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	if err := cache.Store(ctx, "keep", []tmdb.Candidate{{ID: 1}}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	now = now.AddDate(5, 0, 0)
	if _, ok, _ := cache.Lookup(ctx, "keep"); !ok {
		t.Fatal("expected entry to survive without a max age")
	}
	if removed, _ := cache.Prune(ctx); removed != 0 {
		t.Fatalf("prune removed %d", removed)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.db")
	cache, err := Open(path, time.Hour, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := cache.Store(context.Background(), "heat", []tmdb.Candidate{{ID: 949}}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	_ = cache.Close()

	reopened, err := Open(path, time.Hour, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, ok, _ := reopened.Lookup(context.Background(), "heat"); !ok {
		t.Fatal("expected entry after reopen")
	}
}

func TestProviderServesFromCache(t *testing.T) {
	fake := testsupport.NewFakeProvider()
	fake.AddMovie(949, "Heat", 1995)
	provider := Wrap(fake, openTestCache(t, time.Hour), logging.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := provider.SearchMovies(ctx, "Heat")
		if err != nil {
			t.Fatalf("SearchMovies: %v", err)
		}
		if len(got) != 1 || got[0].ID != 949 {
			t.Fatalf("unexpected candidates %+v", got)
		}
	}
	if calls := fake.SearchCalls("heat"); calls != 1 {
		t.Fatalf("expected one remote search, got %d", calls)
	}
	if _, err := provider.MovieDetails(ctx, 949); err != nil {
		t.Fatalf("details should pass through: %v", err)
	}
}

func TestProviderDoesNotCacheErrors(t *testing.T) {
	fake := testsupport.NewFakeProvider()
	fake.FailSearch("flaky", services.Wrap(services.ErrUnreachable, "tmdb", "search", "", nil))
	provider := Wrap(fake, openTestCache(t, time.Hour), nil)

	for i := 0; i < 2; i++ {
		if _, err := provider.SearchMovies(context.Background(), "flaky"); !errors.Is(err, services.ErrUnreachable) {
			t.Fatalf("expected ErrUnreachable, got %v", err)
		}
	}
	if calls := fake.SearchCalls("flaky"); calls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", calls)
	}
}
