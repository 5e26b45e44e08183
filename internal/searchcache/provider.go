package searchcache

import (
	"context"
	"log/slog"

	"cinelog/internal/logging"
	"cinelog/internal/tmdb"
)

// Provider serves title searches from the cache and delegates everything
// else to the wrapped provider. Cache failures degrade to a direct search.
type Provider struct {
	tmdb.Provider
	cache  *Cache
	logger *slog.Logger
}

// Wrap decorates provider with cache.
func Wrap(provider tmdb.Provider, cache *Cache, logger *slog.Logger) *Provider {
	return &Provider{
		Provider: provider,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "searchcache"),
	}
}

// SearchMovies returns cached candidates for query or searches and caches
// the result. Errors are never cached.
func (p *Provider) SearchMovies(ctx context.Context, query string) ([]tmdb.Candidate, error) {
	candidates, ok, err := p.cache.Lookup(ctx, query)
	if err != nil {
		p.logger.Warn("search cache lookup failed", logging.String("query", query), logging.Error(err))
	}
	if ok {
		p.logger.Debug("search cache hit",
			logging.String("query", query),
			logging.Int("result_count", len(candidates)))
		return candidates, nil
	}

	candidates, err = p.Provider.SearchMovies(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Store(ctx, query, candidates); err != nil {
		p.logger.Warn("search cache store failed", logging.String("query", query), logging.Error(err))
	}
	return candidates, nil
}

var _ tmdb.Provider = (*Provider)(nil)
