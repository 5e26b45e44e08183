// Package disambiguation fixes wrong automatic matches and adds entries by
// hand. Candidate lists come straight from the remote search in its
// relevance order; applying a candidate swaps an entry's metadata while the
// user's own data stays attached.
package disambiguation
