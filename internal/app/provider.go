package app

import (
	"context"
	"io"

	"cinelog/internal/tmdb"
)

// unconfiguredProvider stands in for TMDB when no API key is set. Every
// network operation fails with the configuration error so local commands
// keep working.
type unconfiguredProvider struct {
	err error
}

func (p unconfiguredProvider) SearchMovies(context.Context, string) ([]tmdb.Candidate, error) {
	return nil, p.err
}

func (p unconfiguredProvider) MovieDetails(context.Context, int64) (*tmdb.Movie, error) {
	return nil, p.err
}

func (p unconfiguredProvider) ExternalReference(context.Context, int64) (string, error) {
	return "", p.err
}

func (p unconfiguredProvider) FetchImage(context.Context, string, string) (io.ReadCloser, error) {
	return nil, p.err
}

func (p unconfiguredProvider) ImageURL(string, string) string {
	return ""
}
