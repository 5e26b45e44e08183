package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"cinelog/internal/app"
	"cinelog/internal/config"
	"cinelog/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	provider   *testsupport.FakeProvider
	configPath string
	scanDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("TMDB_API_KEY", "")
	cfg := testsupport.NewConfig(t, testsupport.WithScanDirectories("movies"))
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := config.Save(configPath, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	provider := testsupport.NewFakeProvider()
	provider.AddMovie(949, "Heat", 1995, "Crime", "Drama")
	provider.AddMovie(603, "The Matrix", 1999, "Action", "Science Fiction")
	provider.AddMovie(78, "Blade Runner", 1982, "Science Fiction")

	return &cliTestEnv{
		cfg:        cfg,
		provider:   provider,
		configPath: configPath,
		scanDir:    cfg.Library.ScanDirectories[0],
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, e.configPath, app.WithProvider(e.provider))
}

func runCLI(t *testing.T, args []string, configPath string, opts ...app.Option) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(opts...)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
