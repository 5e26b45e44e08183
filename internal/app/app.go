package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cinelog/internal/catalog"
	"cinelog/internal/catalogsync"
	"cinelog/internal/catalogview"
	"cinelog/internal/config"
	"cinelog/internal/disambiguation"
	"cinelog/internal/logging"
	"cinelog/internal/metadata"
	"cinelog/internal/posters"
	"cinelog/internal/scanner"
	"cinelog/internal/searchcache"
	"cinelog/internal/tmdb"
)

// App holds the wired catalog components for one process.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       *catalog.Store
	Posters     *posters.Cache
	Provider    tmdb.Provider
	SearchCache *searchcache.Cache
	Builder     *metadata.Builder
	Coordinator *catalogsync.Coordinator
	Resolver    *disambiguation.Resolver
	View        *catalogview.Engine

	configured bool
	status     func(Status)
}

// Status is a startup step reported to the presentation layer.
type Status struct {
	Step    string
	Message string
	Warning bool
}

type options struct {
	provider tmdb.Provider
	observer func(catalogsync.Progress)
	status   func(Status)
}

// Option configures New.
type Option func(*options)

// WithProvider replaces the TMDB client, typically with a fake in tests.
func WithProvider(provider tmdb.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithSyncObserver receives per-file sync progress.
func WithSyncObserver(fn func(catalogsync.Progress)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithStatus receives startup status lines.
func WithStatus(fn func(Status)) Option {
	return func(o *options) {
		o.status = fn
	}
}

// New opens the catalog and wires every component from cfg. A missing TMDB
// key is not an error: network operations fail with services.ErrConfigMissing
// instead. A corrupt catalog file is.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	store, err := catalog.Open(cfg.Paths.CatalogPath, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
		status: o.status,
	}

	provider := o.provider
	if provider != nil {
		a.configured = true
	} else if keyErr := cfg.RequireTMDB(); keyErr != nil {
		provider = unconfiguredProvider{err: keyErr}
	} else {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
			tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
			tmdb.WithTimeout(cfg.RequestTimeout()),
		)
		if err != nil {
			return nil, err
		}
		provider = client
		a.configured = true
	}

	if cfg.SearchCache.Enabled && a.configured {
		cache, err := searchcache.Open(cfg.SearchCache.Path, cfg.SearchCacheMaxAge(), logger)
		if err != nil {
			logging.WarnWithContext(logger, "search cache unavailable", "search_cache_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the search cache database or disable search_cache"),
				logging.String(logging.FieldImpact, "title searches always hit TMDB"))
		} else {
			a.SearchCache = cache
			provider = searchcache.Wrap(provider, cache, logger)
		}
	}
	a.Provider = provider

	a.Posters, err = posters.NewCache(cfg.Paths.PosterDir, provider, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Builder = metadata.NewBuilder(provider, a.Posters, logger)

	var syncOpts []catalogsync.Option
	if o.observer != nil {
		syncOpts = append(syncOpts, catalogsync.WithObserver(o.observer))
	}
	a.Coordinator = catalogsync.New(store, a.Builder, logger, syncOpts...)
	a.Resolver = disambiguation.New(provider, a.Builder, store, logger)
	a.View = catalogview.NewEngine(store)
	return a, nil
}

// Close releases the search cache database.
func (a *App) Close() error {
	if a == nil || a.SearchCache == nil {
		return nil
	}
	return a.SearchCache.Close()
}

// Configured reports whether a TMDB key is available.
func (a *App) Configured() bool {
	return a.configured
}

// RequireProvider returns the configuration error when TMDB is not usable.
func (a *App) RequireProvider() error {
	if a.configured {
		return nil
	}
	return a.Config.RequireTMDB()
}

// Sync scans dirs (the configured scan directories when empty) and
// synchronizes the files found using limit workers (the configured
// concurrency when <= 0).
func (a *App) Sync(ctx context.Context, dirs []string, limit int) (*catalogsync.Run, []scanner.Warning, error) {
	if err := a.RequireProvider(); err != nil {
		return nil, nil, err
	}
	if len(dirs) == 0 {
		dirs = a.Config.Library.ScanDirectories
	}
	if len(dirs) == 0 {
		return nil, nil, errors.New("no scan directories configured; add one with `cinelog config add-dir`")
	}
	if limit <= 0 {
		limit = a.Config.Sync.Concurrency
	}
	run, warnings := a.Coordinator.SyncDirectories(ctx, dirs, limit)
	return run, warnings, nil
}

// Startup runs the automatic scan when enabled and directories are
// configured, reporting each step through the status callback. It returns a
// nil run when the scan was not performed. Only a missing key is reported
// as a warning; it never fails startup.
func (a *App) Startup(ctx context.Context) *catalogsync.Run {
	a.report(Status{Step: "Catalog", Message: fmt.Sprintf("loaded %d entries from %s", a.Store.Len(), a.Store.Path())})

	cfg := a.Config
	if !cfg.Library.AutoScanOnStartup {
		a.report(Status{Step: "Startup scan", Message: "disabled"})
		return nil
	}
	if len(cfg.Library.ScanDirectories) == 0 {
		a.report(Status{Step: "Startup scan", Message: "no scan directories configured"})
		return nil
	}
	if err := a.RequireProvider(); err != nil {
		a.report(Status{Step: "Startup scan", Message: "skipped: TMDB API key not configured (run `cinelog config set-key`)", Warning: true})
		return nil
	}

	a.report(Status{Step: "Scanning", Message: fmt.Sprintf("%d directories", len(cfg.Library.ScanDirectories))})
	run, warnings, err := a.Sync(ctx, nil, 0)
	for _, w := range warnings {
		a.report(Status{Step: "Directory", Message: w.Error(), Warning: true})
	}
	if err != nil {
		a.report(Status{Step: "Sync", Message: err.Error(), Warning: true})
		return nil
	}
	a.report(Status{Step: "Sync", Message: run.Summary(), Warning: run.Failed > 0})
	return run
}

func (a *App) report(s Status) {
	attrs := []logging.Attr{logging.String("step", s.Step), logging.String("message", s.Message)}
	if s.Warning {
		a.Logger.Warn("startup status", logging.Args(attrs...)...)
	} else {
		a.Logger.Info("startup status", logging.Args(attrs...)...)
	}
	if a.status != nil {
		a.status(s)
	}
}
