// Package catalogsync reconciles video files on disk with the catalog.
//
// A run partitions its input paths into already cataloged (skipped) and new
// ones, feeds the new paths to a fixed pool of workers, and merges each
// finished pipeline into the store from a single collector goroutine. The
// pool size is a hard cap on in-flight pipelines; there is no rate limiting
// beyond it. Every input path ends up as exactly one added, skipped, or
// failed outcome, and no failure aborts the rest of the run.
//
// When the top search match is already cataloged without a file the new
// file is associated with that entry. When it is cataloged with a different
// file the path fails with a conflict so the user can disambiguate it.
package catalogsync
