package scanner

import (
	"path/filepath"
	"strings"
	"unicode"
)

// TitleFromPath derives a search title from a video file name. The video
// extension is dropped and runs of '.', '_' and whitespace collapse to a
// single space. Every other rune, including case, hyphens and apostrophes,
// is kept as written.
func TitleFromPath(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if IsVideo(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var b strings.Builder
	pendingSpace := false
	for _, r := range base {
		if r == '.' || r == '_' || unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
