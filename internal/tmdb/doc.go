// Package tmdb provides the minimal TMDB API client used to enrich cataloged
// video files.
//
// It exposes movie title search (relevance ordered, capped at 20 candidates),
// detail retrieval with credits, external ID lookup, and image downloads by
// served path fragment. Every failure is tagged with a services marker:
// transport errors and 5xx responses are Unreachable, 429 is RateLimited, 404
// is NotFound, and undecodable payloads are Malformed, so batch callers can
// count them per file. The client never throttles on its own.
package tmdb
