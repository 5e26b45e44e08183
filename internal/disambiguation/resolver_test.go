package disambiguation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"cinelog/internal/catalog"
	"cinelog/internal/logging"
	"cinelog/internal/metadata"
	"cinelog/internal/services"
	"cinelog/internal/testsupport"
	"cinelog/internal/tmdb"
)

func newResolver(t *testing.T) (*Resolver, *testsupport.FakeProvider, *catalog.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	provider := testsupport.NewFakeProvider()
	store := testsupport.MustOpenCatalog(t, cfg)
	builder := metadata.NewBuilder(provider, nil, logging.NewNop())
	return New(provider, builder, store, logging.NewNop()), provider, store
}

func TestListCandidatesKeepsRemoteOrder(t *testing.T) {
	resolver, provider, _ := newResolver(t)
	var candidates []tmdb.Candidate
	for i := 0; i < 25; i++ {
		candidates = append(candidates, tmdb.Candidate{ID: int64(1000 - i), Title: fmt.Sprintf("Hit %d", i)})
	}
	provider.SetCandidates("hit", candidates...)

	got, err := resolver.ListCandidates(context.Background(), "Hit")
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(got) != tmdb.MaxCandidates {
		t.Fatalf("len = %d, want %d", len(got), tmdb.MaxCandidates)
	}
	for i, c := range got {
		if c.ID != int64(1000-i) {
			t.Fatalf("order changed at %d: %+v", i, c)
		}
	}

	empty, err := resolver.ListCandidates(context.Background(), "nothing")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result, got %v %v", empty, err)
	}
}

func TestApplyCandidatePreservesFileAssociation(t *testing.T) {
	resolver, provider, store := newResolver(t)
	provider.AddMovie(9708, "The Thing", 1982, "Horror")
	remake := provider.AddMovie(60935, "The Thing", 2011, "Horror", "Mystery")
	remake.Runtime = 103
	provider.SetExternalReference(60935, "tt0905372")

	original, err := store.Insert(catalog.Entry{
		ID:       60935,
		Title:    "The Thing",
		FilePath: "/movies/the.thing.mkv",
		Genres:   []string{"Horror", "Mystery"},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := store.LogWatch(60935, catalog.WatchLogEntry{Date: "2026-10-01"}); err != nil {
		t.Fatalf("LogWatch: %v", err)
	}

	updated, err := resolver.ApplyCandidate(context.Background(), 60935, 9708)
	if err != nil {
		t.Fatalf("ApplyCandidate: %v", err)
	}
	if updated.ID != 9708 || updated.ReleaseYear != 1982 || updated.RuntimeMinutes != 100 {
		t.Fatalf("metadata not replaced: %+v", updated)
	}
	if updated.ExternalReferenceID != "" || len(updated.Genres) != 1 {
		t.Fatalf("stale metadata survived: %+v", updated)
	}
	if updated.FilePath != original.FilePath || !updated.AddedAt.Equal(original.AddedAt) {
		t.Fatalf("user fields changed: %+v vs %+v", updated, original)
	}
	if len(updated.WatchLog) != 1 {
		t.Fatalf("watch log lost: %+v", updated.WatchLog)
	}
	if _, ok := store.Get(60935); ok {
		t.Fatal("old id should no longer resolve")
	}
}

func TestApplyCandidateErrors(t *testing.T) {
	resolver, provider, store := newResolver(t)
	provider.AddMovie(1, "One", 2001)
	provider.AddMovie(2, "Two", 2002)
	for _, id := range []int64{1, 2} {
		if _, err := store.Insert(catalog.Entry{ID: id, Title: "placeholder"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	if _, err := resolver.ApplyCandidate(context.Background(), 99, 1); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing entry: expected ErrNotFound, got %v", err)
	}
	if _, err := resolver.ApplyCandidate(context.Background(), 1, 404); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing candidate: expected ErrNotFound, got %v", err)
	}
	if _, err := resolver.ApplyCandidate(context.Background(), 1, 2); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("taken candidate: expected ErrConflict, got %v", err)
	}
	if got, _ := store.Get(1); got.Title != "placeholder" {
		t.Fatalf("failed apply must not mutate: %+v", got)
	}
}

func TestApplyCandidateSurfacesRemoteErrors(t *testing.T) {
	resolver, provider, store := newResolver(t)
	provider.FailDetails(5, services.Wrap(services.ErrRateLimited, "tmdb", "details", "", nil))
	if _, err := store.Insert(catalog.Entry{ID: 5, Title: "Five"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := resolver.Refresh(context.Background(), 5); !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRefreshReplacesMetadataInPlace(t *testing.T) {
	resolver, provider, store := newResolver(t)
	movie := provider.AddMovie(42, "Answer", 1979)
	if _, err := store.Insert(catalog.Entry{ID: 42, Title: "Old Title", FilePath: "/m/answer.mkv"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	movie.VoteAverage = 9.1

	got, err := resolver.Refresh(context.Background(), 42)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got.Title != "Answer" || got.Rating != 9.1 || got.FilePath != "/m/answer.mkv" {
		t.Fatalf("unexpected refreshed entry: %+v", got)
	}
}

func TestAddManual(t *testing.T) {
	resolver, provider, store := newResolver(t)
	provider.AddMovie(550, "Fight Club", 1999, "Drama")
	provider.AddMovie(551, "Another", 2000)
	file := filepath.Join(t.TempDir(), "fight.club.mkv")

	entry, err := resolver.AddManual(context.Background(), 550, file)
	if err != nil {
		t.Fatalf("AddManual: %v", err)
	}
	if entry.FilePath != file || entry.AddedAt.IsZero() {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if _, err := resolver.AddManual(context.Background(), 550, ""); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("duplicate id: expected ErrConflict, got %v", err)
	}
	if _, err := resolver.AddManual(context.Background(), 551, file); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("duplicate file: expected ErrConflict, got %v", err)
	}
	if provider.DetailCalls(551) != 0 {
		t.Fatal("conflicting add must not fetch details")
	}

	wish, err := resolver.AddManual(context.Background(), 551, "")
	if err != nil {
		t.Fatalf("wishlist add: %v", err)
	}
	if wish.FilePath != "" {
		t.Fatalf("wishlist entry should have no file: %+v", wish)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", store.Len())
	}
}

func TestAddTitle(t *testing.T) {
	resolver, provider, _ := newResolver(t)
	provider.SetCandidates("dune",
		tmdb.Candidate{ID: 438631, Title: "Dune", ReleaseYear: 2021},
		tmdb.Candidate{ID: 841, Title: "Dune", ReleaseYear: 1984},
	)
	provider.AddMovie(841, "Dune", 1984)

	entry, err := resolver.AddTitle(context.Background(), "Dune", 1, "")
	if err != nil {
		t.Fatalf("AddTitle: %v", err)
	}
	if entry.ID != 841 {
		t.Fatalf("expected second candidate, got %+v", entry)
	}
	if _, err := resolver.AddTitle(context.Background(), "Dune", 5, ""); err == nil {
		t.Fatal("expected out of range pick to fail")
	}
	if _, err := resolver.AddTitle(context.Background(), "No Such Film", 0, ""); !errors.Is(err, services.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

// corruptAfterStore fails every Update after the first with a corrupt-store error.
type corruptAfterStore struct {
	*catalog.Store
	updates int
}

func (s *corruptAfterStore) Update(id int64, next catalog.Entry) (catalog.Entry, error) {
	s.updates++
	if s.updates > 1 {
		return catalog.Entry{}, services.Wrap(services.ErrCorruptStore, "catalog", "load", "catalog.json", nil)
	}
	return s.Store.Update(id, next)
}

func TestRefreshAllSkipsPerEntryFailures(t *testing.T) {
	resolver, provider, store := newResolver(t)
	for _, id := range []int64{1, 2, 3} {
		provider.AddMovie(id, fmt.Sprintf("Movie %d", id), 2000, "Drama")
		if _, err := store.Insert(catalog.Entry{ID: id, Title: "stale"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	provider.FailDetails(2, services.Wrap(services.ErrUnreachable, "tmdb", "details", "", nil))

	refreshed, failures, err := resolver.RefreshAll(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if refreshed != 2 || len(failures) != 1 || failures[0].ID != 2 {
		t.Fatalf("unexpected result: refreshed=%d failures=%+v", refreshed, failures)
	}
	if !errors.Is(failures[0].Err, services.ErrUnreachable) {
		t.Fatalf("failure kind lost: %v", failures[0].Err)
	}
	if got, _ := store.Get(3); got.Title != "Movie 3" {
		t.Fatalf("entry after a failure not refreshed: %+v", got)
	}
}

func TestRefreshAllStopsOnCorruptStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	provider := testsupport.NewFakeProvider()
	base := testsupport.MustOpenCatalog(t, cfg)
	store := &corruptAfterStore{Store: base}
	builder := metadata.NewBuilder(provider, nil, logging.NewNop())
	resolver := New(provider, builder, store, logging.NewNop())
	for _, id := range []int64{1, 2, 3} {
		provider.AddMovie(id, fmt.Sprintf("Movie %d", id), 2000)
		if _, err := base.Insert(catalog.Entry{ID: id, Title: "stale"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	refreshed, failures, err := resolver.RefreshAll(context.Background(), []int64{1, 2, 3})
	if !errors.Is(err, services.ErrCorruptStore) {
		t.Fatalf("expected corrupt store error, got %v", err)
	}
	if refreshed != 1 || len(failures) != 0 {
		t.Fatalf("unexpected progress: refreshed=%d failures=%+v", refreshed, failures)
	}
	if calls := provider.DetailCalls(3); calls != 0 {
		t.Fatalf("refresh continued after a fatal error: %d detail calls for entry 3", calls)
	}
}
