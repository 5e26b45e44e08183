// Package services defines shared utilities consumed by the catalog
// components and their external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper so failures from the
//     metadata client, poster cache, scanner, and store classify uniformly
//     (per-file failure during sync vs surfaced error for single operations).
//   - Context helpers that stamp sync run IDs, entry IDs, and file paths for
//     logging.
//
// Use these helpers when wiring new components so error classification and
// log correlation stay uniform across the catalog.
package services
