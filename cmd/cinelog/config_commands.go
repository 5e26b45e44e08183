package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cinelog/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigSetKeyCommand(ctx))
	configCmd.AddCommand(newConfigAddDirCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set api_key under [tmdb] (or export TMDB_API_KEY) and add scan directories before syncing.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			if err := cfg.RequireTMDB(); err != nil {
				fmt.Fprintln(out, "TMDB API key not set; sync and search are unavailable")
			}
			if len(cfg.Library.ScanDirectories) == 0 {
				fmt.Fprintln(out, "No scan directories configured")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigSetKeyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "set-key <api-key>",
		Short:       "Store the TMDB API key in the configuration file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return errors.New("api key must not be empty")
			}
			return updateConfig(ctx, func(cfg *config.Config) (string, error) {
				cfg.TMDB.APIKey = key
				return "Saved TMDB API key", nil
			}, cmd)
		},
	}
}

func newConfigAddDirCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "add-dir <directory>",
		Short:       "Add a directory to the scan list",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(ctx, func(cfg *config.Config) (string, error) {
				dir, err := cfg.AddScanDirectory(args[0])
				if err != nil {
					return "", err
				}
				info, err := os.Stat(dir)
				if err != nil || !info.IsDir() {
					return fmt.Sprintf("Added %s (not currently a readable directory)", dir), nil
				}
				return "Added " + dir, nil
			}, cmd)
		},
	}
}

// updateConfig loads the configuration file, applies mutate, and writes it back.
func updateConfig(ctx *commandContext, mutate func(*config.Config) (string, error), cmd *cobra.Command) error {
	cfg, path, _, err := config.Load(ctx.configFlagValue())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	message, err := mutate(cfg)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", message, filepath.Clean(path))
	return nil
}
