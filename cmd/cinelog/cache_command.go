package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cinelog/internal/logging"
	"cinelog/internal/searchcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the TMDB search cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show search cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSearchCache(ctx, func(cache *searchcache.Cache) error {
				stats, err := cache.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Path:    %s\n", cache.Path())
				fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
				fmt.Fprintf(out, "Expired: %d\n", stats.Expired)
				return nil
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired search results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSearchCache(ctx, func(cache *searchcache.Cache) error {
				removed, err := cache.Prune(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired searches\n", removed)
				return nil
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached search result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSearchCache(ctx, func(cache *searchcache.Cache) error {
				removed, err := cache.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached searches\n", removed)
				return nil
			})
		},
	})

	return cacheCmd
}

func withSearchCache(ctx *commandContext, fn func(*searchcache.Cache) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.SearchCache.Enabled {
		return errors.New("search cache is disabled (search_cache.enabled = false)")
	}
	verbose := ctx.verboseFlag != nil && *ctx.verboseFlag
	logger, err := logging.NewFromConfig(cfg, verbose)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	cache, err := searchcache.Open(cfg.SearchCache.Path, cfg.SearchCacheMaxAge(), logger)
	if err != nil {
		return err
	}
	defer cache.Close()
	return fn(cache)
}
