package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinelog/internal/app"
	"cinelog/internal/catalogview"
)

func newRootCommand(appOptions ...app.Option) *cobra.Command {
	var configFlag string
	var verboseFlag bool

	ctx := newCommandContext(&configFlag, &verboseFlag, appOptions...)

	rootCmd := &cobra.Command{
		Use:           "cinelog",
		Short:         "Catalog local movie files with TMDB metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Also write logs to stderr")

	rootCmd.AddCommand(newSyncCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newGenresCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newApplyCommand(ctx))
	rootCmd.AddCommand(newRefreshCommand(ctx))
	rootCmd.AddCommand(newAssociateCommand(ctx))
	rootCmd.AddCommand(newRemoveCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}

// runBrowse performs the startup scan and prints the catalog.
func runBrowse(cmd *cobra.Command, ctx *commandContext) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	status := app.WithStatus(func(s app.Status) {
		kind := statusInfo
		if s.Warning {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(s.Step, kind, s.Message, colorize))
	})
	return ctx.withApp(func(a *app.App) error {
		a.Startup(cmd.Context())
		fmt.Fprintln(out)
		entries := a.View.Project(catalogview.Query{Sort: catalogview.SortTitle})
		fmt.Fprintln(out, renderEntryTable(entries))
		return nil
	}, status)
}
