package config

const (
	defaultConfigPath         = "~/.config/cinelog/config.toml"
	defaultCatalogPath        = "~/.config/cinelog/catalog.json"
	defaultPosterDir          = "~/.local/share/cinelog/posters"
	defaultLogDir             = "~/.local/share/cinelog/logs"
	defaultSearchCachePath    = "~/.cache/cinelog/search.db"
	defaultSearchCacheMaxAge  = 30
	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL   = "https://image.tmdb.org/t/p"
	defaultTMDBLanguage       = "en-US"
	defaultTMDBRequestTimeout = 10
	defaultSyncConcurrency    = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultAutoScanOnStartup  = true
	defaultSearchCacheEnabled = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			ImageBaseURL:   defaultTMDBImageBaseURL,
			Language:       defaultTMDBLanguage,
			RequestTimeout: defaultTMDBRequestTimeout,
		},
		Library: Library{
			AutoScanOnStartup: defaultAutoScanOnStartup,
		},
		Paths: Paths{
			CatalogPath: defaultCatalogPath,
			PosterDir:   defaultPosterDir,
			LogDir:      defaultLogDir,
		},
		Sync: Sync{
			Concurrency: defaultSyncConcurrency,
		},
		SearchCache: SearchCache{
			Enabled:    defaultSearchCacheEnabled,
			Path:       defaultSearchCachePath,
			MaxAgeDays: defaultSearchCacheMaxAge,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
