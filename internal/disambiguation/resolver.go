package disambiguation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"cinelog/internal/catalog"
	"cinelog/internal/logging"
	"cinelog/internal/services"
	"cinelog/internal/tmdb"
)

// Searcher runs title searches.
type Searcher interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.Candidate, error)
}

// EntryBuilder builds a catalog entry from a TMDB id.
type EntryBuilder interface {
	Build(ctx context.Context, id int64) (catalog.Entry, error)
}

// Store is the subset of the catalog store the resolver mutates.
type Store interface {
	Get(id int64) (catalog.Entry, bool)
	HasFile(path string) bool
	Insert(entry catalog.Entry) (catalog.Entry, error)
	Update(id int64, next catalog.Entry) (catalog.Entry, error)
}

// Resolver corrects and extends the catalog from user-selected candidates.
// Every error is returned to the caller unchanged in kind.
type Resolver struct {
	searcher Searcher
	builder  EntryBuilder
	store    Store
	logger   *slog.Logger
}

// New constructs a Resolver.
func New(searcher Searcher, builder EntryBuilder, store Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		searcher: searcher,
		builder:  builder,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "disambiguation"),
	}
}

// ListCandidates returns up to tmdb.MaxCandidates matches for title in the
// remote relevance order. No matches is an empty result, not an error.
func (r *Resolver) ListCandidates(ctx context.Context, title string) ([]tmdb.Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	candidates, err := r.searcher.SearchMovies(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(candidates) > tmdb.MaxCandidates {
		candidates = candidates[:tmdb.MaxCandidates]
	}
	return candidates, nil
}

// ApplyCandidate replaces every metadata field of entry entryID with the
// details of candidateID. The file association, AddedAt, and watch log are
// kept. Choosing a different id re-keys the entry.
func (r *Resolver) ApplyCandidate(ctx context.Context, entryID, candidateID int64) (catalog.Entry, error) {
	ctx = services.WithEntryID(ctx, entryID)
	logger := logging.WithContext(ctx, r.logger)

	current, ok := r.store.Get(entryID)
	if !ok {
		return catalog.Entry{}, services.Wrap(services.ErrNotFound, "disambiguation", "apply",
			fmt.Sprintf("entry %d is not cataloged", entryID), nil)
	}
	if candidateID != entryID {
		if other, taken := r.store.Get(candidateID); taken {
			return catalog.Entry{}, services.Wrap(services.ErrConflict, "disambiguation", "apply",
				fmt.Sprintf("candidate %d already cataloged as %q", candidateID, other.Title), nil)
		}
	}

	next, err := r.builder.Build(ctx, candidateID)
	if err != nil {
		return catalog.Entry{}, err
	}
	updated, err := r.store.Update(entryID, next)
	if err != nil {
		return catalog.Entry{}, err
	}
	logger.Info("candidate applied",
		logging.String("previous_title", current.Title),
		logging.String("title", updated.Title),
		logging.Int64("candidate_id", candidateID))
	return updated, nil
}

// Refresh re-fetches entry id's own metadata.
func (r *Resolver) Refresh(ctx context.Context, id int64) (catalog.Entry, error) {
	return r.ApplyCandidate(ctx, id, id)
}

// RefreshFailure is one entry RefreshAll could not refresh.
type RefreshFailure struct {
	ID  int64
	Err error
}

// RefreshAll refreshes each id in order. Per-entry failures are collected
// and the loop moves on; a failure that is not services.Recoverable, or a
// cancelled ctx, stops it and is returned with the progress made so far.
func (r *Resolver) RefreshAll(ctx context.Context, ids []int64) (int, []RefreshFailure, error) {
	refreshed := 0
	var failures []RefreshFailure
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return refreshed, failures, err
		}
		if _, err := r.Refresh(ctx, id); err != nil {
			if !services.Recoverable(err) {
				r.logger.Error("refresh stopped",
					logging.Int64(logging.FieldEntryID, id),
					logging.Int("refreshed", refreshed),
					logging.Error(err))
				return refreshed, failures, err
			}
			failures = append(failures, RefreshFailure{ID: id, Err: err})
			continue
		}
		refreshed++
	}
	return refreshed, failures, nil
}

// AddManual catalogs candidateID, optionally associated with filePath. It
// fails with ErrConflict when the id or the file is already cataloged.
func (r *Resolver) AddManual(ctx context.Context, candidateID int64, filePath string) (catalog.Entry, error) {
	if candidateID <= 0 {
		return catalog.Entry{}, fmt.Errorf("invalid candidate id %d", candidateID)
	}
	if existing, ok := r.store.Get(candidateID); ok {
		return catalog.Entry{}, services.Wrap(services.ErrConflict, "disambiguation", "add",
			fmt.Sprintf("%d already cataloged as %q", candidateID, existing.Title), nil)
	}
	if filePath = strings.TrimSpace(filePath); filePath != "" {
		abs, err := filepath.Abs(filePath)
		if err != nil {
			return catalog.Entry{}, fmt.Errorf("resolve file path: %w", err)
		}
		if r.store.HasFile(abs) {
			return catalog.Entry{}, services.Wrap(services.ErrConflict, "disambiguation", "add",
				abs+" is already cataloged", nil)
		}
		filePath = abs
	}

	entry, err := r.builder.Build(services.WithEntryID(ctx, candidateID), candidateID)
	if err != nil {
		return catalog.Entry{}, err
	}
	entry.FilePath = filePath
	inserted, err := r.store.Insert(entry)
	if err != nil {
		return catalog.Entry{}, err
	}
	r.logger.Info("entry added manually",
		logging.Int64(logging.FieldEntryID, inserted.ID),
		logging.String("title", inserted.Title),
		logging.String(logging.FieldFile, inserted.FilePath))
	return inserted, nil
}

// AddTitle searches for title and catalogs the candidate at index (zero
// based) of the ranked results.
func (r *Resolver) AddTitle(ctx context.Context, title string, index int, filePath string) (catalog.Entry, error) {
	candidates, err := r.ListCandidates(ctx, title)
	if err != nil {
		return catalog.Entry{}, err
	}
	if len(candidates) == 0 {
		return catalog.Entry{}, services.Wrap(services.ErrNoMatch, "disambiguation", "add",
			fmt.Sprintf("no results for %q", strings.TrimSpace(title)), nil)
	}
	if index < 0 || index >= len(candidates) {
		return catalog.Entry{}, fmt.Errorf("pick %d out of range: %d candidates", index+1, len(candidates))
	}
	return r.AddManual(ctx, candidates[index].ID, filePath)
}
