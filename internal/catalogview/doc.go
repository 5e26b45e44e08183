// Package catalogview derives filtered and sorted views of the catalog for
// presentation. Project is a pure function over a slice of entries; Engine
// wraps it with a per-query cache that is dropped whenever the store
// revision moves.
package catalogview
