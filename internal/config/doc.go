// Package config loads, normalizes, and validates cinelog configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the TMDB_API_KEY environment
// fallback. A missing API key is deliberately not a load error: browsing the
// catalog works offline, and network operations call RequireTMDB to surface a
// ConfigMissing prompt instead.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
