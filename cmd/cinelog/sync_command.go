package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cinelog/internal/app"
	"cinelog/internal/catalogsync"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var concurrency int
	var asJSON bool
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "sync [dir...]",
		Short: "Catalog new video files in the scan directories",
		Long: "Scan the given directories (or the configured scan directories) for video files\n" +
			"that are not cataloged yet and fetch their metadata from TMDB.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stderr := cmd.ErrOrStderr()
			var bar *progressbar.ProgressBar
			showBar := !noProgress && !asJSON && shouldColorize(stderr)
			observer := app.WithSyncObserver(func(p catalogsync.Progress) {
				if !showBar {
					return
				}
				if bar == nil {
					bar = newSyncProgressBar(stderr, p.Total)
				}
				bar.Describe(filepath.Base(p.Outcome.Path))
				_ = bar.Add(1)
			})

			return ctx.withApp(func(a *app.App) error {
				run, warnings, err := a.Sync(cmd.Context(), args, concurrency)
				if bar != nil {
					_ = bar.Finish()
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, run)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, w := range warnings {
					fmt.Fprintln(out, renderStatusLine("Directory", statusWarn, w.Error(), colorize))
				}
				for _, o := range run.Outcomes {
					switch o.Status {
					case catalogsync.StatusAdded:
						fmt.Fprintln(out, renderStatusLine("Added", statusOK, o.Line(), colorize))
					case catalogsync.StatusFailed:
						fmt.Fprintln(out, renderStatusLine("Failed", statusError, o.Line(), colorize))
					}
				}
				kind := statusOK
				if run.Failed > 0 {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Sync", kind, run.Summary(), colorize))
				return nil
			}, observer)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum files processed at once (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func newSyncProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("syncing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
