package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfigMissing       = errors.New("configuration missing")
	ErrDirectoryUnreadable = errors.New("directory unreadable")
	ErrNoMatch             = errors.New("no match")
	ErrUnreachable         = errors.New("remote unreachable")
	ErrRateLimited         = errors.New("rate limited")
	ErrMalformed           = errors.New("malformed response")
	ErrCorruptStore        = errors.New("corrupt store")
	ErrNotFound            = errors.New("not found")
	ErrDownloadFailed      = errors.New("download failed")
	ErrConflict            = errors.New("conflict")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUnreachable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

var kinds = []struct {
	marker error
	label  string
}{
	{ErrConfigMissing, "config_missing"},
	{ErrDirectoryUnreadable, "directory_unreadable"},
	{ErrNoMatch, "no_match"},
	{ErrRateLimited, "rate_limited"},
	{ErrUnreachable, "unreachable"},
	{ErrMalformed, "malformed"},
	{ErrCorruptStore, "corrupt_store"},
	{ErrNotFound, "not_found"},
	{ErrDownloadFailed, "download_failed"},
	{ErrConflict, "conflict"},
}

// Kind returns a short stable label for err suitable for progress lines and
// JSON output. Unclassified errors report "error".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.label
		}
	}
	return "error"
}

// Recoverable reports whether err is a per-item failure that batch callers
// should count and move past. Only store corruption is treated as fatal.
func Recoverable(err error) bool {
	if err == nil {
		return true
	}
	return !errors.Is(err, ErrCorruptStore)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
