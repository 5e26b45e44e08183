package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinelog/internal/app"
	"cinelog/internal/catalogview"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var filter string
	var genre string
	var sortKey string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := catalogview.ParseSortKey(sortKey)
			if err != nil {
				return fmt.Errorf("%w (valid: %s)", err, joinSortKeys())
			}
			return ctx.withApp(func(a *app.App) error {
				query := catalogview.Query{
					Text:  filter,
					Genre: canonicalGenre(a.View.Genres(), genre),
					Sort:  key,
				}
				entries := a.View.Project(query)
				if asJSON {
					return writeJSON(cmd, entries)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderEntryTable(entries))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only titles containing this text (case-insensitive)")
	cmd.Flags().StringVarP(&genre, "genre", "g", catalogview.AllGenres, "Only entries in this genre")
	cmd.Flags().StringVarP(&sortKey, "sort", "s", string(catalogview.SortTitle), "Sort order: "+joinSortKeys())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func newGenresCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List the genres present in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				for _, g := range a.View.Genres() {
					fmt.Fprintln(cmd.OutOrStdout(), g)
				}
				return nil
			})
		},
	}
}

// canonicalGenre maps user input onto a known genre name ignoring case, so
// the exact-membership filter still matches "horror". Unknown input is
// returned unchanged.
func canonicalGenre(known []string, value string) string {
	value = strings.TrimSpace(value)
	for _, g := range known {
		if strings.EqualFold(g, value) {
			return g
		}
	}
	return value
}

func joinSortKeys() string {
	keys := make([]string, len(catalogview.SortKeys))
	for i, k := range catalogview.SortKeys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}
