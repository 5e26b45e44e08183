// Package metadata turns TMDB lookups into catalog entries: top match
// selection for a search title, detail fetch, cast photo references,
// external reference, and poster caching.
package metadata
