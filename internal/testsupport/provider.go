package testsupport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"cinelog/internal/services"
	"cinelog/internal/tmdb"
)

// FakeProvider is an in-memory tmdb.Provider. Searches match on the
// case-insensitive trimmed query. It records call counts and the peak number
// of concurrent calls.
type FakeProvider struct {
	// Delay is applied to every call and honours context cancellation.
	Delay time.Duration

	mu           sync.Mutex
	results      map[string][]tmdb.Candidate
	movies       map[int64]*tmdb.Movie
	externalIDs  map[int64]string
	images       map[string][]byte
	searchErrs   map[string]error
	detailErrs   map[int64]error
	externalErr  error
	imageErr     error
	searchCalls  map[string]int
	detailCalls  map[int64]int
	imageCalls   int
	inFlight     int
	peakInFlight int
}

// NewFakeProvider returns an empty provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		results:     make(map[string][]tmdb.Candidate),
		movies:      make(map[int64]*tmdb.Movie),
		externalIDs: make(map[int64]string),
		images:      make(map[string][]byte),
		searchErrs:  make(map[string]error),
		detailErrs:  make(map[int64]error),
		searchCalls: make(map[string]int),
		detailCalls: make(map[int64]int),
	}
}

// AddMovie registers a movie with a poster and a search result under its
// title, and returns the movie for further tweaking.
func (f *FakeProvider) AddMovie(id int64, title string, year int, genres ...string) *tmdb.Movie {
	movie := &tmdb.Movie{
		ID:          id,
		Title:       title,
		Overview:    title + " overview",
		ReleaseDate: fmt.Sprintf("%04d-06-01", year),
		Runtime:     100,
		VoteAverage: 7.0,
		PosterPath:  fmt.Sprintf("/poster-%d.jpg", id),
		Credits: tmdb.Credits{
			Crew: []tmdb.CrewCredit{{Name: "Director " + title, Job: "Director"}},
		},
	}
	for i, genre := range genres {
		movie.Genres = append(movie.Genres, tmdb.Genre{ID: int64(i + 1), Name: genre})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies[id] = movie
	f.images[movie.PosterPath] = []byte(fmt.Sprintf("poster-%d", id))
	key := queryKey(title)
	f.results[key] = append(f.results[key], tmdb.Candidate{
		ID:          id,
		Title:       title,
		ReleaseYear: year,
		Rating:      movie.VoteAverage,
	})
	return movie
}

// SetCandidates replaces the search results for query.
func (f *FakeProvider) SetCandidates(query string, candidates ...tmdb.Candidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[queryKey(query)] = candidates
}

// SetExternalReference registers the external id for a movie.
func (f *FakeProvider) SetExternalReference(id int64, ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.externalIDs[id] = ref
}

// FailSearch makes searches for query return err.
func (f *FakeProvider) FailSearch(query string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchErrs[queryKey(query)] = err
}

// FailDetails makes detail lookups for id return err.
func (f *FakeProvider) FailDetails(id int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailErrs[id] = err
}

// FailExternalReferences makes every external id lookup return err.
func (f *FakeProvider) FailExternalReferences(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.externalErr = err
}

// FailImages makes every image fetch return err.
func (f *FakeProvider) FailImages(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageErr = err
}

func (f *FakeProvider) SearchMovies(ctx context.Context, query string) ([]tmdb.Candidate, error) {
	done, err := f.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	key := queryKey(query)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls[key]++
	if err := f.searchErrs[key]; err != nil {
		return nil, err
	}
	results := f.results[key]
	if len(results) > tmdb.MaxCandidates {
		results = results[:tmdb.MaxCandidates]
	}
	out := make([]tmdb.Candidate, len(results))
	copy(out, results)
	return out, nil
}

func (f *FakeProvider) MovieDetails(ctx context.Context, id int64) (*tmdb.Movie, error) {
	done, err := f.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[id]++
	if err := f.detailErrs[id]; err != nil {
		return nil, err
	}
	movie, ok := f.movies[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "tmdb", "details", fmt.Sprintf("movie %d", id), nil)
	}
	clone := *movie
	return &clone, nil
}

func (f *FakeProvider) ExternalReference(ctx context.Context, id int64) (string, error) {
	done, err := f.enter(ctx)
	if err != nil {
		return "", err
	}
	defer done()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.externalErr != nil {
		return "", f.externalErr
	}
	return f.externalIDs[id], nil
}

func (f *FakeProvider) FetchImage(ctx context.Context, _ string, path string) (io.ReadCloser, error) {
	done, err := f.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	data, ok := f.images[path]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "tmdb", "image", path, nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *FakeProvider) ImageURL(size, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return "https://images.test/" + size + path
}

// SearchCalls returns how many times query was searched.
func (f *FakeProvider) SearchCalls(query string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls[queryKey(query)]
}

// TotalSearchCalls returns the number of searches across all queries.
func (f *FakeProvider) TotalSearchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.searchCalls {
		total += n
	}
	return total
}

// DetailCalls returns how many times details for id were requested.
func (f *FakeProvider) DetailCalls(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls[id]
}

// ImageCalls returns the number of image downloads attempted.
func (f *FakeProvider) ImageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imageCalls
}

// PeakInFlight returns the highest number of simultaneous calls observed.
func (f *FakeProvider) PeakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peakInFlight
}

func (f *FakeProvider) enter(ctx context.Context) (func(), error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peakInFlight {
		f.peakInFlight = f.inFlight
	}
	f.mu.Unlock()

	done := func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			done()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return done, nil
}

func queryKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

var _ tmdb.Provider = (*FakeProvider)(nil)
