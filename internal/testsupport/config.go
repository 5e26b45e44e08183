package testsupport

import (
	"path/filepath"
	"testing"

	"cinelog/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.CatalogPath = filepath.Join(base, "data", "catalog.json")
	cfgVal.Paths.PosterDir = filepath.Join(base, "posters")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.SearchCache.Path = filepath.Join(base, "cache", "search.db")
	cfgVal.Library.ScanDirectories = nil
	cfgVal.Library.AutoScanOnStartup = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithScanDirectories creates the named subdirectories under the base dir
// and registers them as scan directories.
func WithScanDirectories(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			dir := filepath.Join(b.baseDir, name)
			MkdirAll(b.t, dir)
			b.cfg.Library.ScanDirectories = append(b.cfg.Library.ScanDirectories, dir)
		}
	}
}

// WithConcurrency overrides the sync worker count.
func WithConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.Concurrency = n
	}
}

// WithSearchCache toggles the title search cache.
func WithSearchCache(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SearchCache.Enabled = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.PosterDir)
}
