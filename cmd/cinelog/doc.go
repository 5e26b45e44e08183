// Command cinelog catalogs local movie files with TMDB metadata.
//
// Running cinelog with no subcommand performs the startup scan (when
// enabled) and prints the catalog. Subcommands sync directories, browse and
// filter the catalog, fix mismatched entries, and manage configuration and
// the search cache.
package main
