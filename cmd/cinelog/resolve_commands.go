package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinelog/internal/app"
	"cinelog/internal/catalog"
	"cinelog/internal/services"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search TMDB for candidate matches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return ctx.withApp(func(a *app.App) error {
				candidates, err := a.Resolver.ListCandidates(cmd.Context(), title)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, candidates)
				}
				if len(candidates) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No matches for %q\n", title)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderCandidateTable(candidates))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print candidates as JSON")
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var pick int
	var candidateID int64
	var file string

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a movie by title or TMDB id",
		Long: "Add a movie to the catalog. With a title, the first search result is used\n" +
			"unless --pick selects another one (see `cinelog search`). With --id the TMDB id\n" +
			"is added directly. Without --file the movie is added to the wishlist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if candidateID == 0 && strings.TrimSpace(title) == "" {
				return errors.New("a title or --id is required")
			}
			if candidateID != 0 && title != "" {
				return errors.New("pass either a title or --id, not both")
			}
			if pick < 1 {
				return fmt.Errorf("--pick must be 1 or greater, got %d", pick)
			}
			return ctx.withApp(func(a *app.App) error {
				if err := a.RequireProvider(); err != nil {
					return err
				}
				var entry catalog.Entry
				var err error
				if candidateID != 0 {
					entry, err = a.Resolver.AddManual(cmd.Context(), candidateID, file)
				} else {
					entry, err = a.Resolver.AddTitle(cmd.Context(), title, pick-1, file)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if entry.FilePath == "" {
					fmt.Fprintf(out, "Added %s (%d) to the wishlist\n", entry.Title, entry.ID)
				} else {
					fmt.Fprintf(out, "Added %s (%d) for %s\n", entry.Title, entry.ID, entry.FilePath)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&pick, "pick", 1, "Which search result to add (1 = best match)")
	cmd.Flags().Int64Var(&candidateID, "id", 0, "TMDB id to add instead of searching")
	cmd.Flags().StringVar(&file, "file", "", "Video file to associate")
	return cmd
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <entry-id> <candidate-id>",
		Short: "Replace an entry's metadata with another TMDB match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			candidateID, err := parseEntryID(args[1])
			if err != nil {
				return err
			}
			return ctx.withApp(func(a *app.App) error {
				updated, err := a.Resolver.ApplyCandidate(cmd.Context(), entryID, candidateID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Entry %d is now %s (%s, %d)\n",
					entryID, updated.Title, formatYear(updated.ReleaseYear), updated.ID)
				return nil
			})
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "refresh [entry-id]",
		Short: "Re-fetch metadata for one entry or the whole catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass an entry id or --all")
			}
			return ctx.withApp(func(a *app.App) error {
				out := cmd.OutOrStdout()
				if !all {
					id, err := parseEntryID(args[0])
					if err != nil {
						return err
					}
					updated, err := a.Resolver.Refresh(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Refreshed %s (%d)\n", updated.Title, updated.ID)
					return nil
				}

				if err := a.RequireProvider(); err != nil {
					return err
				}
				colorize := shouldColorize(out)
				entries, _ := a.Store.Snapshot()
				titles := make(map[int64]string, len(entries))
				ids := make([]int64, len(entries))
				for i, e := range entries {
					ids[i] = e.ID
					titles[e.ID] = e.Title
				}
				refreshed, failures, err := a.Resolver.RefreshAll(cmd.Context(), ids)
				for _, f := range failures {
					fmt.Fprintln(out, renderStatusLine(titles[f.ID], statusError, services.Kind(f.Err)+": "+f.Err.Error(), colorize))
				}
				if err != nil {
					return err
				}
				failed := len(failures)
				kind := statusOK
				if failed > 0 {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Refresh", kind,
					fmt.Sprintf("%d refreshed, %d failed", refreshed, failed), colorize))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Refresh every entry")
	return cmd
}
