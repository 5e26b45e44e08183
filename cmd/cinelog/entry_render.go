package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cinelog/internal/catalog"
	"cinelog/internal/tmdb"
)

var entryColumns = []column{
	{Header: "ID", Align: alignRight},
	{Header: "Title", MaxWidth: 40},
	{Header: "Year", Align: alignRight},
	{Header: "Rating", Align: alignRight},
	{Header: "Genres", MaxWidth: 30},
	{Header: "File"},
	{Header: "Added"},
}

func renderEntryTable(entries []catalog.Entry) string {
	if len(entries) == 0 {
		return "Catalog is empty"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			formatYear(e.ReleaseYear),
			formatRating(e.Rating),
			strings.Join(e.Genres, ", "),
			fileState(e.FilePath),
			formatAdded(e.AddedAt),
		})
	}
	return renderTable(entryColumns, rows)
}

var candidateColumns = []column{
	{Header: "#", Align: alignRight},
	{Header: "ID", Align: alignRight},
	{Header: "Title", MaxWidth: 50},
	{Header: "Year", Align: alignRight},
	{Header: "Rating", Align: alignRight},
}

func renderCandidateTable(candidates []tmdb.Candidate) string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(c.ID, 10),
			c.Title,
			formatYear(c.ReleaseYear),
			formatRating(c.Rating),
		})
	}
	return renderTable(candidateColumns, rows)
}

// renderEntryDetails prints the full record of one entry. posterPath is the
// resolved poster file, if any.
func renderEntryDetails(e catalog.Entry, posterPath string) string {
	var b strings.Builder
	title := e.Title
	if e.ReleaseYear > 0 {
		title = fmt.Sprintf("%s (%d)", e.Title, e.ReleaseYear)
	}
	fmt.Fprintf(&b, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))

	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%-12s %s\n", label+":", value)
	}
	field("TMDB ID", strconv.FormatInt(e.ID, 10))
	field("Director", e.Director)
	field("Genres", strings.Join(e.Genres, ", "))
	field("Rating", formatRating(e.Rating))
	if e.RuntimeMinutes > 0 {
		field("Runtime", fmt.Sprintf("%d min", e.RuntimeMinutes))
	} else {
		field("Runtime", "")
	}
	field("IMDb", e.ExternalReferenceID)
	field("File", e.FilePath)
	field("Poster", posterPath)
	field("Added", fmt.Sprintf("%s (%s)", e.AddedAt.Local().Format(time.DateTime), formatAdded(e.AddedAt)))

	if e.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", e.Description)
	}

	if len(e.Cast) > 0 {
		rows := make([][]string, 0, len(e.Cast))
		for _, m := range e.Cast {
			rows = append(rows, []string{m.Name, m.Character})
		}
		fmt.Fprintf(&b, "\n%s\n", renderTable([]column{{Header: "Cast"}, {Header: "Character"}}, rows))
	}

	if len(e.WatchLog) > 0 {
		rows := make([][]string, 0, len(e.WatchLog))
		for _, w := range e.WatchLog {
			rating := "-"
			if w.Rating != nil {
				rating = strconv.FormatFloat(*w.Rating, 'f', 1, 64)
			}
			rows = append(rows, []string{w.Date, rating, w.Comments})
		}
		watchColumns := []column{{Header: "Watched"}, {Header: "Rating", Align: alignRight}, {Header: "Comments", MaxWidth: 50}}
		fmt.Fprintf(&b, "\n%s\n", renderTable(watchColumns, rows))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatYear(year int) string {
	if year <= 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

func formatRating(rating float64) string {
	if rating <= 0 {
		return "-"
	}
	return strconv.FormatFloat(rating, 'f', 1, 64)
}

func formatAdded(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func fileState(path string) string {
	if path == "" {
		return "wishlist"
	}
	return path
}
