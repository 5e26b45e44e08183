package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cinelog/internal/catalog"
	"cinelog/internal/logging"
	"cinelog/internal/services"
	"cinelog/internal/tmdb"
)

// ProfileSize is the TMDB image size used for cast photo references.
const ProfileSize = "w185"

// PosterStore fetches or reuses a cached poster for a TMDB id.
type PosterStore interface {
	EnsureCached(ctx context.Context, id int64, posterPath string) (string, error)
}

// Builder assembles catalog entries from TMDB lookups. It never touches the
// catalog store.
type Builder struct {
	provider tmdb.Provider
	posters  PosterStore
	logger   *slog.Logger
}

// NewBuilder constructs a Builder. posters may be nil, in which case entries
// carry no poster reference.
func NewBuilder(provider tmdb.Provider, posters PosterStore, logger *slog.Logger) *Builder {
	return &Builder{
		provider: provider,
		posters:  posters,
		logger:   logging.NewComponentLogger(logger, "metadata"),
	}
}

// BestMatch searches for title and returns the top-ranked candidate, failing
// with ErrNoMatch when the search is empty.
func (b *Builder) BestMatch(ctx context.Context, title string) (tmdb.Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return tmdb.Candidate{}, services.Wrap(services.ErrNoMatch, "metadata", "search", "empty title", nil)
	}
	candidates, err := b.provider.SearchMovies(ctx, title)
	if err != nil {
		return tmdb.Candidate{}, err
	}
	if len(candidates) == 0 {
		return tmdb.Candidate{}, services.Wrap(services.ErrNoMatch, "metadata", "search", fmt.Sprintf("no results for %q", title), nil)
	}
	return candidates[0], nil
}

// Build fetches details for id and returns a fully populated entry without
// file association or AddedAt. Detail failures are returned; external
// reference and poster failures only leave their fields empty.
func (b *Builder) Build(ctx context.Context, id int64) (catalog.Entry, error) {
	ctx = services.WithEntryID(ctx, id)
	logger := logging.WithContext(ctx, b.logger)

	movie, err := b.provider.MovieDetails(ctx, id)
	if err != nil {
		return catalog.Entry{}, err
	}
	if movie.ID == 0 {
		movie.ID = id
	}

	entry := catalog.Entry{
		ID:             movie.ID,
		Title:          strings.TrimSpace(movie.Title),
		ReleaseYear:    movie.ReleaseYear(),
		Director:       movie.Director(),
		Genres:         movie.GenreNames(),
		Rating:         movie.VoteAverage,
		RuntimeMinutes: movie.Runtime,
		Description:    strings.TrimSpace(movie.Overview),
	}
	for _, member := range movie.TopCast(catalog.MaxCast) {
		entry.Cast = append(entry.Cast, catalog.CastMember{
			Name:           member.Name,
			Character:      member.Character,
			PhotoReference: b.provider.ImageURL(ProfileSize, member.ProfilePath),
		})
	}

	ref, err := b.provider.ExternalReference(ctx, movie.ID)
	if err != nil {
		logging.WarnWithContext(logger, "external reference unavailable", "external_reference_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "refresh the entry later to retry"),
			logging.String(logging.FieldImpact, "entry saved without external reference"))
	}
	entry.ExternalReferenceID = ref

	if b.posters != nil {
		posterRef, err := b.posters.EnsureCached(ctx, movie.ID, movie.PosterPath)
		if err != nil {
			logging.WarnWithContext(logger, "poster download failed", "poster_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "refresh the entry later to retry"),
				logging.String(logging.FieldImpact, "entry saved without poster"))
		}
		entry.PosterReference = posterRef
	}

	logger.Debug("built catalog entry",
		logging.String("title", entry.Title),
		logging.Int("year", entry.ReleaseYear),
		logging.Int("cast_count", len(entry.Cast)))
	return entry, nil
}
