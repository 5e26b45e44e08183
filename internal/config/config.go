package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cinelog/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	ImageBaseURL   string `toml:"image_base_url"`
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Library lists the directories the sync coordinator consults.
type Library struct {
	ScanDirectories   []string `toml:"scan_directories"`
	AutoScanOnStartup bool     `toml:"auto_scan_on_startup"`
}

// Paths contains on-disk locations for the catalog, posters, and logs.
type Paths struct {
	CatalogPath string `toml:"catalog_path"`
	PosterDir   string `toml:"poster_dir"`
	LogDir      string `toml:"log_dir"`
}

// Sync contains worker pool settings for catalog synchronization.
type Sync struct {
	Concurrency int `toml:"concurrency"`
}

// SearchCache contains configuration for the title search cache.
type SearchCache struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cinelog.
//
// Configuration sections by subsystem:
//   - TMDB: metadata lookups and image downloads
//   - Library: scan directories and startup behaviour
//   - Paths: catalog file, poster cache, and log locations
//   - Sync: worker pool size
//   - SearchCache: cached title searches
//   - Logging: log format and level
type Config struct {
	TMDB        TMDB        `toml:"tmdb"`
	Library     Library     `toml:"library"`
	Paths       Paths       `toml:"paths"`
	Sync        Sync        `toml:"sync"`
	SearchCache SearchCache `toml:"search_cache"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Save writes cfg to path as TOML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinelog.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// RequireTMDB reports a ConfigMissing error when no API key is configured.
// Network-backed operations call this before contacting TMDB.
func (c *Config) RequireTMDB() error {
	if strings.TrimSpace(c.TMDB.APIKey) != "" {
		return nil
	}
	path, err := DefaultConfigPath()
	if err != nil {
		path = defaultConfigPath
	}
	return services.Wrap(services.ErrConfigMissing, "config", "tmdb.api_key",
		fmt.Sprintf("set TMDB_API_KEY or run 'cinelog config set-key' (config: %s)", path), nil)
}

// RequestTimeout returns the per-request TMDB timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.TMDB.RequestTimeout) * time.Second
}

// SearchCacheMaxAge returns the search cache TTL.
func (c *Config) SearchCacheMaxAge() time.Duration {
	return time.Duration(c.SearchCache.MaxAgeDays) * 24 * time.Hour
}

// EnsureDirectories creates the directories cinelog writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Paths.CatalogPath), c.Paths.PosterDir, c.Paths.LogDir}
	if c.SearchCache.Enabled {
		dirs = append(dirs, filepath.Dir(c.SearchCache.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AddScanDirectory appends dir to the scan list after expansion. Duplicates
// are kept; file-path dedup makes them harmless.
func (c *Config) AddScanDirectory(dir string) (string, error) {
	expanded, err := expandPath(strings.TrimSpace(dir))
	if err != nil {
		return "", err
	}
	if expanded == "" {
		return "", errors.New("directory must not be empty")
	}
	c.Library.ScanDirectories = append(c.Library.ScanDirectories, expanded)
	return expanded, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
