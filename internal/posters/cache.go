package posters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"cinelog/internal/fileutil"
	"cinelog/internal/logging"
	"cinelog/internal/services"
)

// Size is the TMDB image size requested for posters.
const Size = "original"

// Fetcher opens a remote image by its served path fragment.
type Fetcher interface {
	FetchImage(ctx context.Context, size, path string) (io.ReadCloser, error)
}

// Cache stores one poster per TMDB id under a deterministic file name.
// Cached files are permanent: nothing here expires or prunes them.
type Cache struct {
	dir     string
	fetcher Fetcher
	logger  *slog.Logger
	group   singleflight.Group
}

// NewCache initialises a cache rooted at dir.
func NewCache(dir string, fetcher Fetcher, logger *slog.Logger) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("poster directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create poster dir: %w", err)
	}
	return &Cache{
		dir:     dir,
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "posters"),
	}, nil
}

// Reference returns the cache key for a TMDB id.
func Reference(id int64) string {
	return fmt.Sprintf("poster_%d.jpg", id)
}

// Dir exposes the backing directory for inspection.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Path resolves a reference to its location on disk.
func (c *Cache) Path(ref string) string {
	ref = strings.TrimSpace(ref)
	if c == nil || ref == "" {
		return ""
	}
	return filepath.Join(c.dir, filepath.Base(ref))
}

// Has reports whether a poster for id is already cached.
func (c *Cache) Has(id int64) bool {
	return fileutil.Exists(c.Path(Reference(id)))
}

// EnsureCached returns the reference for id's poster, downloading
// posterPath first when the file is not cached yet. An empty posterPath with
// nothing cached yields an empty reference. Concurrent calls for one id share
// a single download.
func (c *Cache) EnsureCached(ctx context.Context, id int64, posterPath string) (string, error) {
	if c == nil {
		return "", errors.New("poster cache unavailable")
	}
	if id <= 0 {
		return "", fmt.Errorf("invalid poster id %d", id)
	}
	ref := Reference(id)
	target := c.Path(ref)
	if fileutil.Exists(target) {
		return ref, nil
	}
	posterPath = strings.TrimSpace(posterPath)
	if posterPath == "" {
		return "", nil
	}

	// The download outlives any single caller so a cancelled caller does not
	// fail the others sharing it.
	detached := context.WithoutCancel(ctx)
	results := c.group.DoChan(strconv.FormatInt(id, 10), func() (any, error) {
		if fileutil.Exists(target) {
			return nil, nil
		}
		return nil, c.download(detached, id, posterPath, target)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.Debug("poster download shared", logging.Int64(logging.FieldEntryID, id))
		}
	}
	return ref, nil
}

func (c *Cache) download(ctx context.Context, id int64, posterPath, target string) error {
	if c.fetcher == nil {
		return services.Wrap(services.ErrDownloadFailed, "posters", "download", "no image source configured", nil)
	}
	body, err := c.fetcher.FetchImage(ctx, Size, posterPath)
	if err != nil {
		return services.Wrap(services.ErrDownloadFailed, "posters", "download", posterPath, err)
	}
	defer body.Close()

	written, err := fileutil.WriteStreamAtomic(target, body, 0o644)
	if err != nil {
		return services.Wrap(services.ErrDownloadFailed, "posters", "store", target, err)
	}
	if written == 0 {
		_ = os.Remove(target)
		return services.Wrap(services.ErrDownloadFailed, "posters", "download", posterPath+": empty image", nil)
	}
	c.logger.Debug("poster cached",
		logging.Int64(logging.FieldEntryID, id),
		logging.String("path", target),
		logging.Int64("bytes", written))
	return nil
}
