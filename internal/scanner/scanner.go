package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cinelog/internal/logging"
	"cinelog/internal/services"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".avi":  {},
	".mov":  {},
	".wmv":  {},
	".flv":  {},
	".webm": {},
	".m4v":  {},
}

// Warning records a directory that could not be enumerated.
type Warning struct {
	Directory string
	Err       error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Directory, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Result is the outcome of one scan.
type Result struct {
	Paths    []string
	Warnings []Warning
}

// IsVideo reports whether path carries an allow-listed video extension.
func IsVideo(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Scan lists video files directly inside each directory, in directory order.
// Subdirectories are not descended into. Paths are absolute and reported at
// most once even when directories repeat. A directory that is missing or
// unreadable becomes a warning and scanning continues with the next one.
func Scan(dirs []string, logger *slog.Logger) Result {
	logger = logging.NewComponentLogger(logger, "scanner")
	var result Result
	seen := make(map[string]struct{})

	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			result.Warnings = append(result.Warnings, unreadable(dir, err))
			continue
		}
		entries, err := os.ReadDir(abs)
		if err != nil {
			warning := unreadable(abs, err)
			result.Warnings = append(result.Warnings, warning)
			logging.WarnWithContext(logger, "scan directory skipped", "directory_unreadable",
				logging.String("directory", abs),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the directory exists and is readable"),
				logging.String(logging.FieldImpact, "files in this directory are not cataloged"))
			continue
		}

		found := 0
		for _, entry := range entries {
			if !IsVideo(entry.Name()) {
				continue
			}
			path := filepath.Join(abs, entry.Name())
			if !isRegularFile(path, entry) {
				continue
			}
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			result.Paths = append(result.Paths, path)
			found++
		}
		logger.Debug("scanned directory",
			logging.String("directory", abs),
			logging.Int("video_count", found))
	}
	return result
}

func isRegularFile(path string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func unreadable(dir string, err error) Warning {
	if errors.Is(err, fs.ErrNotExist) {
		err = services.Wrap(services.ErrDirectoryUnreadable, "scanner", "read dir", "directory does not exist", err)
	} else {
		err = services.Wrap(services.ErrDirectoryUnreadable, "scanner", "read dir", "", err)
	}
	return Warning{Directory: dir, Err: err}
}
