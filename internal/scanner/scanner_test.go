package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"cinelog/internal/logging"
	"cinelog/internal/services"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanFiltersExtensionsAndSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mkv", "b.MP4", "c.txt", "d.webm", "notes.nfo", "sub/e.mkv"} {
		touch(t, filepath.Join(dir, name))
	}
	if err := os.Mkdir(filepath.Join(dir, "folder.mkv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result := Scan([]string{dir}, logging.NewNop())
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
	want := []string{
		filepath.Join(dir, "a.mkv"),
		filepath.Join(dir, "b.MP4"),
		filepath.Join(dir, "d.webm"),
	}
	got := slices.Clone(result.Paths)
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
}

func TestScanDeduplicatesRepeatedDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "movie.mkv"))

	result := Scan([]string{dir, dir + string(filepath.Separator), dir}, nil)
	if len(result.Paths) != 1 {
		t.Fatalf("expected one path, got %v", result.Paths)
	}
}

func TestScanSameNameInDistinctDirectories(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "one")
	second := filepath.Join(root, "two")
	touch(t, filepath.Join(first, "Heat.mkv"))
	touch(t, filepath.Join(second, "Heat.mkv"))

	result := Scan([]string{first, second}, nil)
	want := []string{filepath.Join(first, "Heat.mkv"), filepath.Join(second, "Heat.mkv")}
	if !slices.Equal(result.Paths, want) {
		t.Fatalf("paths = %v, want %v", result.Paths, want)
	}
}

func TestScanMissingDirectoryIsWarning(t *testing.T) {
	good := t.TempDir()
	touch(t, filepath.Join(good, "ok.avi"))
	missing := filepath.Join(t.TempDir(), "gone")

	result := Scan([]string{missing, good}, logging.NewNop())
	if len(result.Paths) != 1 {
		t.Fatalf("expected the good directory to be scanned, got %v", result.Paths)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", result.Warnings)
	}
	warning := result.Warnings[0]
	if warning.Directory != missing {
		t.Fatalf("warning directory = %q", warning.Directory)
	}
	if !errors.Is(warning, services.ErrDirectoryUnreadable) {
		t.Fatalf("expected ErrDirectoryUnreadable, got %v", warning.Err)
	}
}

func TestScanFileInsteadOfDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "movie.mkv")
	touch(t, file)
	result := Scan([]string{file}, nil)
	if len(result.Paths) != 0 || len(result.Warnings) != 1 {
		t.Fatalf("expected one warning and no paths, got %+v", result)
	}
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/movies/the.matrix.mkv", "the matrix"},
		{"/movies/blade_runner-2049.MP4", "blade runner-2049"},
		{"/movies/Amélie  (2001).avi", "Amélie (2001)"},
		{"/movies/heat...mkv", "heat"},
		{"/movies/no extension", "no extension"},
		{"/movies/.mkv", ""},
		{"/movies/Schindler's.List.mkv", "Schindler's List"},
		{"/movies/WALL·E.mkv", "WALL·E"},
		{"/movies/Spider-Man.Into.the.Spider-Verse.mkv", "Spider-Man Into the Spider-Verse"},
		{"/movies/RoboCop.mkv", "RoboCop"},
		{"/movies/_Leading.and.trailing_ .mkv", "Leading and trailing"},
	}
	for _, tt := range tests {
		if got := TitleFromPath(tt.path); got != tt.want {
			t.Errorf("TitleFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
