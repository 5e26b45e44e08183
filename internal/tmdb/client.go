package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cinelog/internal/services"
)

// Provider defines the TMDB operations the catalog components depend on.
// Implementations have no effect on local state.
type Provider interface {
	SearchMovies(ctx context.Context, query string) ([]Candidate, error)
	MovieDetails(ctx context.Context, movieID int64) (*Movie, error)
	ExternalReference(ctx context.Context, movieID int64) (string, error)
	FetchImage(ctx context.Context, size, path string) (io.ReadCloser, error)
	ImageURL(size, path string) string
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithImageBaseURL overrides the image CDN root.
func WithImageBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimSpace(base); base != "" {
			c.imageBaseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfigMissing, "tmdb", "new client", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: "https://image.tmdb.org/t/p",
		language:     strings.TrimSpace(language),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovies searches TMDB for the supplied title. Results keep TMDB's
// relevance order and are capped at MaxCandidates. No matches is an empty
// slice, not an error.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)

	var payload searchResponse
	if err := c.getJSON(ctx, "search", "/search/movie", params, &payload); err != nil {
		return nil, err
	}

	limit := len(payload.Results)
	if limit > MaxCandidates {
		limit = MaxCandidates
	}
	candidates := make([]Candidate, 0, limit)
	for _, r := range payload.Results[:limit] {
		candidates = append(candidates, Candidate{
			ID:          r.ID,
			Title:       r.Title,
			ReleaseYear: parseYear(r.ReleaseDate),
			Rating:      r.VoteAverage,
		})
	}
	return candidates, nil
}

// MovieDetails fetches movie details and credits by TMDB ID.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*Movie, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "credits")

	var payload Movie
	if err := c.getJSON(ctx, "details", fmt.Sprintf("/movie/%d", movieID), params, &payload); err != nil {
		return nil, err
	}
	if payload.ID == 0 {
		return nil, services.Wrap(services.ErrMalformed, "tmdb", "details", "response missing id", nil)
	}
	return &payload, nil
}

// ExternalReference returns the IMDb identifier for movieID. An absent
// identifier is reported as an empty string.
func (c *Client) ExternalReference(ctx context.Context, movieID int64) (string, error) {
	if movieID <= 0 {
		return "", errors.New("movie id must be positive")
	}
	var payload externalIDs
	if err := c.getJSON(ctx, "external ids", fmt.Sprintf("/movie/%d/external_ids", movieID), url.Values{}, &payload); err != nil {
		return "", err
	}
	if payload.IMDbID == nil {
		return "", nil
	}
	return strings.TrimSpace(*payload.IMDbID), nil
}

// ImageURL returns the absolute URL for an image path fragment at size.
func (c *Client) ImageURL(size, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if size = strings.Trim(strings.TrimSpace(size), "/"); size == "" {
		size = "original"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBaseURL + "/" + size + path
}

// FetchImage opens the image at path. Callers must close the returned body.
func (c *Client) FetchImage(ctx context.Context, size, path string) (io.ReadCloser, error) {
	target := c.ImageURL(size, path)
	if target == "" {
		return nil, errors.New("image path must not be empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrUnreachable, "tmdb", "image", fmt.Sprintf("latency=%v", latency), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, statusError("image", resp.StatusCode, latency)
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, operation, path string, params url.Values, dst any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrUnreachable, "tmdb", operation, fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(operation, resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return services.Wrap(services.ErrMalformed, "tmdb", operation, "decode response", err)
	}
	return nil
}

func statusError(operation string, status int, latency time.Duration) error {
	message := fmt.Sprintf("returned %d (latency=%v)", status, latency)
	switch {
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "tmdb", operation, message, nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "tmdb", operation, message, nil)
	case status == http.StatusUnauthorized:
		return services.Wrap(services.ErrConfigMissing, "tmdb", operation, "api key rejected: "+message, nil)
	case status >= 500:
		return services.Wrap(services.ErrUnreachable, "tmdb", operation, message, nil)
	default:
		return services.Wrap(services.ErrMalformed, "tmdb", operation, message, nil)
	}
}
