// Package scanner enumerates video files in the configured library
// directories and derives search titles from their names.
//
// Scanning is deliberately shallow: only files directly inside each
// directory are considered, identity is the absolute path, and nothing is
// opened or hashed.
package scanner
