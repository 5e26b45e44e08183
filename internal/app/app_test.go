package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cinelog/internal/catalogview"
	"cinelog/internal/logging"
	"cinelog/internal/services"
	"cinelog/internal/testsupport"
)

func TestNewWithoutAPIKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey(""), testsupport.WithScanDirectories("movies"))
	cfg.Library.AutoScanOnStartup = true

	a, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Configured() {
		t.Fatal("expected unconfigured app")
	}
	if _, _, err := a.Sync(context.Background(), nil, 0); !errors.Is(err, services.ErrConfigMissing) {
		t.Fatalf("Sync: expected ErrConfigMissing, got %v", err)
	}
	if _, err := a.Resolver.ListCandidates(context.Background(), "heat"); !errors.Is(err, services.ErrConfigMissing) {
		t.Fatalf("ListCandidates: expected ErrConfigMissing, got %v", err)
	}

	var statuses []Status
	a.status = func(s Status) { statuses = append(statuses, s) }
	if run := a.Startup(context.Background()); run != nil {
		t.Fatal("startup scan must be skipped without a key")
	}
	last := statuses[len(statuses)-1]
	if !last.Warning {
		t.Fatalf("expected a warning status, got %+v", last)
	}
	if a.View == nil || a.Store == nil {
		t.Fatal("local components must be wired without a key")
	}
}

func TestStartupRunsScan(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScanDirectories("movies"), testsupport.WithSearchCache(true))
	cfg.Library.AutoScanOnStartup = true
	testsupport.WriteVideos(t, cfg.Library.ScanDirectories[0], "heat.mkv", "unknown.mkv")
	provider := testsupport.NewFakeProvider()
	provider.AddMovie(949, "Heat", 1995, "Crime")

	var statuses []Status
	a, err := New(cfg, logging.NewNop(), WithProvider(provider), WithStatus(func(s Status) {
		statuses = append(statuses, s)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	run := a.Startup(context.Background())
	if run == nil {
		t.Fatal("expected startup scan to run")
	}
	if run.Added != 1 || run.Failed != 1 {
		t.Fatalf("unexpected counts: %s", run.Summary())
	}
	if len(statuses) < 3 {
		t.Fatalf("expected a status line per step, got %+v", statuses)
	}
	if a.SearchCache == nil {
		t.Fatal("expected search cache to be wired")
	}
	if got := a.View.Project(catalogview.Query{Genre: "Crime"}); len(got) != 1 || got[0].ID != 949 {
		t.Fatalf("view after startup = %+v", got)
	}
	if _, err := os.Stat(cfg.Paths.CatalogPath); err != nil {
		t.Fatalf("catalog not persisted: %v", err)
	}
}

func TestStartupDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScanDirectories("movies"))
	cfg.Library.AutoScanOnStartup = false
	provider := testsupport.NewFakeProvider()

	a, err := New(cfg, nil, WithProvider(provider))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if run := a.Startup(context.Background()); run != nil {
		t.Fatal("startup scan should be disabled")
	}
	if provider.TotalSearchCalls() != 0 {
		t.Fatal("no searches expected")
	}
}

func TestNewCorruptCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MkdirAll(t, filepath.Dir(cfg.Paths.CatalogPath))
	if err := os.WriteFile(cfg.Paths.CatalogPath, []byte("[{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(cfg, nil, WithProvider(testsupport.NewFakeProvider())); !errors.Is(err, services.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}
}
