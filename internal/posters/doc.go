// Package posters keeps downloaded movie posters on disk, one file per TMDB
// id named poster_<id>.jpg. A cached poster is reused forever; refreshing an
// entry's metadata never re-downloads it.
package posters
