// Package searchcache keeps TMDB title searches in a local SQLite database
// so repeated scans and disambiguation lookups do not hit the network.
//
// Entries are keyed by the case-folded, whitespace-collapsed query and
// expire after the configured age. Expired rows are ignored on lookup and
// overwritten on the next search; Prune deletes them outright.
package searchcache
