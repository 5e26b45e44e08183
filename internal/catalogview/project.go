package catalogview

import (
	"cmp"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"cinelog/internal/catalog"
)

// AllGenres disables genre filtering.
const AllGenres = "All"

// SortKey names a projection ordering.
type SortKey string

const (
	SortTitle      SortKey = "title"
	SortYearDesc   SortKey = "year_desc"
	SortYearAsc    SortKey = "year_asc"
	SortRatingDesc SortKey = "rating_desc"
	SortRatingAsc  SortKey = "rating_asc"
	SortAddedDesc  SortKey = "added_desc"
	SortAddedAsc   SortKey = "added_asc"
)

// SortKeys lists every supported ordering.
var SortKeys = []SortKey{SortTitle, SortYearDesc, SortYearAsc, SortRatingDesc, SortRatingAsc, SortAddedDesc, SortAddedAsc}

var sortAliases = map[string]SortKey{
	"":           SortTitle,
	"year":       SortYearDesc,
	"rating":     SortRatingDesc,
	"added":      SortAddedDesc,
	"date_added": SortAddedDesc,
}

// ParseSortKey accepts a SortKey name or one of the short aliases (year,
// rating, added), which select the descending order.
func ParseSortKey(value string) (SortKey, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "-", "_")
	if key, ok := sortAliases[value]; ok {
		return key, nil
	}
	for _, key := range SortKeys {
		if string(key) == value {
			return key, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", value)
}

// Query selects and orders a projection. A blank Text or a Genre of "" or
// AllGenres disables that filter.
type Query struct {
	Text  string
	Genre string
	Sort  SortKey
}

func (q Query) normalized() Query {
	q.Text = strings.TrimSpace(q.Text)
	q.Genre = strings.TrimSpace(q.Genre)
	if q.Genre == AllGenres {
		q.Genre = ""
	}
	if q.Sort == "" {
		q.Sort = SortTitle
	}
	return q
}

// Project filters entries by title substring (case-insensitive) and exact
// genre membership, then orders them by q.Sort. Ties break by ascending id.
// The input slice is not modified.
func Project(entries []catalog.Entry, q Query) []catalog.Entry {
	q = q.normalized()
	folder := cases.Fold()
	needle := folder.String(q.Text)

	out := make([]catalog.Entry, 0, len(entries))
	for _, entry := range entries {
		if needle != "" && !strings.Contains(folder.String(entry.Title), needle) {
			continue
		}
		if q.Genre != "" && !entry.HasGenre(q.Genre) {
			continue
		}
		out = append(out, entry)
	}

	less := lessFunc(q.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		if c := less(out[i], out[j]); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// lessFunc returns a three-way comparison for key.
func lessFunc(key SortKey) func(a, b catalog.Entry) int {
	switch key {
	case SortYearDesc:
		return func(a, b catalog.Entry) int { return cmp.Compare(b.ReleaseYear, a.ReleaseYear) }
	case SortYearAsc:
		return func(a, b catalog.Entry) int { return cmp.Compare(a.ReleaseYear, b.ReleaseYear) }
	case SortRatingDesc:
		return func(a, b catalog.Entry) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortRatingAsc:
		return func(a, b catalog.Entry) int { return cmp.Compare(a.Rating, b.Rating) }
	case SortAddedDesc:
		return func(a, b catalog.Entry) int { return b.AddedAt.Compare(a.AddedAt) }
	case SortAddedAsc:
		return func(a, b catalog.Entry) int { return a.AddedAt.Compare(b.AddedAt) }
	default:
		return func(a, b catalog.Entry) int { return strings.Compare(a.Title, b.Title) }
	}
}
