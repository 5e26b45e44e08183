package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cinelog/internal/app"
	"cinelog/internal/catalog"
	"cinelog/internal/services"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one cataloged movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(a *app.App) error {
				entry, ok := a.Store.Get(id)
				if !ok {
					return entryNotFound(id)
				}
				if asJSON {
					return writeJSON(cmd, entry)
				}
				posterPath := a.Posters.Path(entry.PosterReference)
				fmt.Fprintln(cmd.OutOrStdout(), renderEntryDetails(entry, posterPath))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the entry as JSON")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a movie from the catalog (the video file is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(a *app.App) error {
				removed, err := a.Store.Remove(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%d)\n", removed.Title, removed.ID)
				return nil
			})
		},
	}
}

func newAssociateCommand(ctx *commandContext) *cobra.Command {
	var clearFile bool

	cmd := &cobra.Command{
		Use:   "associate <id> [file]",
		Short: "Attach a video file to a cataloged movie",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			var path string
			switch {
			case clearFile && len(args) == 2:
				return errors.New("pass either a file or --clear, not both")
			case clearFile:
			case len(args) == 2:
				path, err = filepath.Abs(args[1])
				if err != nil {
					return fmt.Errorf("resolve file path: %w", err)
				}
				info, err := os.Stat(path)
				if err != nil {
					return fmt.Errorf("video file: %w", err)
				}
				if !info.Mode().IsRegular() {
					return fmt.Errorf("video file: %s is not a regular file", path)
				}
			default:
				return errors.New("a file path is required (or --clear)")
			}

			return ctx.withApp(func(a *app.App) error {
				entry, err := a.Store.AssociateFile(id, path)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if entry.FilePath == "" {
					fmt.Fprintf(out, "Cleared file for %s (%d)\n", entry.Title, entry.ID)
				} else {
					fmt.Fprintf(out, "Associated %s with %s (%d)\n", entry.FilePath, entry.Title, entry.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearFile, "clear", false, "Remove the file association")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var date string
	var rating float64
	var comment string

	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Record a viewing in the watch log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			watch := catalog.WatchLogEntry{Date: date, Comments: comment}
			if cmd.Flags().Changed("rating") {
				watch.Rating = &rating
			}
			return ctx.withApp(func(a *app.App) error {
				entry, err := a.Store.LogWatch(id, watch)
				if err != nil {
					return err
				}
				latest := entry.WatchLog[len(entry.WatchLog)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s for %s (%d viewings)\n", latest.Date, entry.Title, len(entry.WatchLog))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Viewing date YYYY-MM-DD (default today)")
	cmd.Flags().Float64Var(&rating, "rating", 0, "Personal rating 0-10")
	cmd.Flags().StringVar(&comment, "comment", "", "Free-form notes")
	return cmd
}

func entryNotFound(id int64) error {
	return services.Wrap(services.ErrNotFound, "catalog", "get", fmt.Sprintf("entry %d is not cataloged", id), nil)
}
