package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable. A missing TMDB API key is
// not a validation failure; see RequireTMDB.
func (c *Config) Validate() error {
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateSearchCache(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Concurrency <= 0 {
		return errors.New("sync.concurrency must be positive")
	}
	if c.TMDB.RequestTimeout <= 0 {
		return errors.New("tmdb.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLibrary() error {
	for _, dir := range c.Library.ScanDirectories {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("library.scan_directories: %q is not absolute", dir)
		}
	}
	return nil
}

func (c *Config) validateSearchCache() error {
	if c.SearchCache.MaxAgeDays < 0 {
		return errors.New("search_cache.max_age_days must be >= 0")
	}
	if c.SearchCache.Enabled && c.SearchCache.Path == "" {
		return errors.New("search_cache.path must be set when search_cache.enabled is true")
	}
	return nil
}
