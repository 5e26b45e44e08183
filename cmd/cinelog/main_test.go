package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"cinelog/internal/catalog"
	"cinelog/internal/catalogsync"
	"cinelog/internal/config"
	"cinelog/internal/services"
	"cinelog/internal/testsupport"
)

func TestSyncAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteVideos(t, env.scanDir, "heat.mkv", "the matrix.mp4", "mystery.avi")

	out, _, err := env.run(t, "sync", "--no-progress")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "2 added, 0 skipped, 1 failed")
	requireContains(t, out, "mystery.avi")

	out, _, err = env.run(t, "list", "--json", "--sort", "year-desc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(entries) != 2 || entries[0].ID != 603 || entries[1].ID != 949 {
		t.Fatalf("unexpected list order: %+v", entries)
	}

	out, _, err = env.run(t, "list", "--genre", "crime")
	if err != nil {
		t.Fatalf("list --genre: %v", err)
	}
	requireContains(t, out, "Heat")
	requireNotContains(t, out, "The Matrix")

	out, _, err = env.run(t, "sync", "--json")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	var run catalogsync.Run
	if err := json.Unmarshal([]byte(out), &run); err != nil {
		t.Fatalf("decode run: %v\n%s", err, out)
	}
	if run.Added != 0 || run.Skipped != 2 || run.Failed != 1 {
		t.Fatalf("second sync should only skip and retry failures, got %s", run.Summary())
	}
}

func TestListRejectsUnknownSort(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "list", "--sort", "length"); err == nil {
		t.Fatal("expected error for unknown sort key")
	}
}

func TestGenresCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "add", "--id", "603"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, _, err := env.run(t, "genres")
	if err != nil {
		t.Fatalf("genres: %v", err)
	}
	if out != "All\nAction\nScience Fiction\n" {
		t.Fatalf("unexpected genres output %q", out)
	}
}

func TestSearchAddAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	files := testsupport.WriteVideos(t, env.scanDir, "heat.mkv")

	out, _, err := env.run(t, "search", "heat")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "949")
	requireContains(t, out, "1995")

	out, _, err = env.run(t, "search", "nothing", "here")
	if err != nil {
		t.Fatalf("search without results: %v", err)
	}
	requireContains(t, out, "No matches")

	out, _, err = env.run(t, "add", "heat", "--file", files[0])
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Added Heat (949)")

	if _, _, err := env.run(t, "add", "--id", "949"); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict for duplicate add, got %v", err)
	}

	out, _, err = env.run(t, "show", "949")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Heat (1995)")
	requireContains(t, out, "Director Heat")
	requireContains(t, out, filepath.Join(env.cfg.Paths.PosterDir, "poster_949.jpg"))

	if _, _, err := env.run(t, "show", "1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddWishlistAndAssociate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "add", "--id", "78")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "to the wishlist")

	files := testsupport.WriteVideos(t, env.scanDir, "br.mkv")
	if _, _, err := env.run(t, "associate", "78", files[0]); err != nil {
		t.Fatalf("associate: %v", err)
	}
	store := testsupport.MustOpenCatalog(t, env.cfg)
	entry, ok := store.Get(78)
	if !ok || entry.FilePath != files[0] {
		t.Fatalf("expected file associated, got %+v", entry)
	}

	if _, _, err := env.run(t, "associate", "78", filepath.Join(env.scanDir, "missing.mkv")); err == nil {
		t.Fatal("expected error for missing file")
	}

	out, _, err = env.run(t, "associate", "78", "--clear")
	if err != nil {
		t.Fatalf("associate --clear: %v", err)
	}
	requireContains(t, out, "Cleared file")
}

func TestApplyAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	files := testsupport.WriteVideos(t, env.scanDir, "blade.runner.mkv")
	if _, _, err := env.run(t, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	out, _, err := env.run(t, "apply", "78", "603")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	requireContains(t, out, "The Matrix")

	store := testsupport.MustOpenCatalog(t, env.cfg)
	if _, ok := store.Get(78); ok {
		t.Fatal("old id should be gone after apply")
	}
	entry, ok := store.Get(603)
	if !ok || entry.FilePath != files[0] {
		t.Fatalf("expected file to follow the applied match, got %+v", entry)
	}

	if _, _, err := env.run(t, "remove", "603"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, err := env.run(t, "remove", "603"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
	if _, ok := testsupport.MustOpenCatalog(t, env.cfg).Get(603); ok {
		t.Fatal("entry still present after remove")
	}
}

func TestWatchCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "add", "--id", "949"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err := env.run(t, "watch", "949", "--date", "2026-01-02", "--rating", "8.5", "--comment", "cinema")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	requireContains(t, out, "Logged 2026-01-02")

	if _, _, err := env.run(t, "watch", "949", "--rating", "11"); err == nil {
		t.Fatal("expected out-of-range rating to fail")
	}

	entry, _ := testsupport.MustOpenCatalog(t, env.cfg).Get(949)
	if len(entry.WatchLog) != 1 {
		t.Fatalf("expected one watch log entry, got %+v", entry.WatchLog)
	}
	w := entry.WatchLog[0]
	if w.Rating == nil || *w.Rating != 8.5 || w.Comments != "cinema" {
		t.Fatalf("unexpected watch entry %+v", w)
	}
}

func TestRefreshRequiresTarget(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "refresh"); err == nil {
		t.Fatal("expected error without id or --all")
	}
	if _, _, err := env.run(t, "add", "--id", "949"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, _, err := env.run(t, "refresh", "--all")
	if err != nil {
		t.Fatalf("refresh --all: %v", err)
	}
	requireContains(t, out, "1 refreshed, 0 failed")
}

func TestBrowseWithoutAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.TMDB.APIKey = ""
	env.cfg.Library.AutoScanOnStartup = true
	if err := config.Save(env.configPath, env.cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	requireContains(t, out, "[WARN]")
	requireContains(t, out, "Catalog is empty")

	if _, _, err := runCLI(t, []string{"search", "heat"}, env.configPath); !errors.Is(err, services.ErrConfigMissing) {
		t.Fatalf("expected config missing error, got %v", err)
	}
}

func TestParseEntryID(t *testing.T) {
	if id, err := parseEntryID(" 42 "); err != nil || id != 42 {
		t.Fatalf("parseEntryID: got %d, %v", id, err)
	}
	for _, value := range []string{"", "0", "-3", "abc"} {
		if _, err := parseEntryID(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}
