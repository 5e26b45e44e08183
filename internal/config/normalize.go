package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeSync()
	if err := c.normalizeSearchCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		c.Paths.CatalogPath = defaultCatalogPath
	}
	if c.Paths.CatalogPath, err = expandPath(c.Paths.CatalogPath); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.PosterDir) == "" {
		c.Paths.PosterDir = defaultPosterDir
	}
	if c.Paths.PosterDir, err = expandPath(c.Paths.PosterDir); err != nil {
		return fmt.Errorf("paths.poster_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.ImageBaseURL = strings.TrimSpace(c.TMDB.ImageBaseURL)
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
}

func (c *Config) normalizeLibrary() error {
	dirs := make([]string, 0, len(c.Library.ScanDirectories))
	for _, dir := range c.Library.ScanDirectories {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return fmt.Errorf("library.scan_directories: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Library.ScanDirectories = dirs
	return nil
}

func (c *Config) normalizeSync() {
	if c.Sync.Concurrency == 0 {
		c.Sync.Concurrency = defaultSyncConcurrency
	}
}

func (c *Config) normalizeSearchCache() error {
	var err error
	if strings.TrimSpace(c.SearchCache.Path) == "" {
		c.SearchCache.Path = defaultSearchCachePath
	}
	if c.SearchCache.Path, err = expandPath(c.SearchCache.Path); err != nil {
		return fmt.Errorf("search_cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
