package catalog

import (
	"slices"
	"time"
)

// MaxCast is the number of billed cast members kept per entry.
const MaxCast = 5

// CastMember is one billed performer.
type CastMember struct {
	Name           string `json:"name"`
	Character      string `json:"character,omitempty"`
	PhotoReference string `json:"photo_reference,omitempty"`
}

// WatchLogEntry records one viewing.
type WatchLogEntry struct {
	Date     string   `json:"date"`
	Rating   *float64 `json:"rating,omitempty"`
	Comments string   `json:"comments,omitempty"`
}

// Entry is one cataloged movie. ID is the TMDB identifier and the store key.
// FilePath is empty for wishlist entries; PosterReference is empty while the
// poster is pending download.
type Entry struct {
	ID                  int64           `json:"id"`
	Title               string          `json:"title"`
	ReleaseYear         int             `json:"release_year"`
	Director            string          `json:"director"`
	Genres              []string        `json:"genres"`
	Rating              float64         `json:"rating"`
	RuntimeMinutes      int             `json:"runtime_minutes"`
	Description         string          `json:"description"`
	ExternalReferenceID string          `json:"external_reference_id,omitempty"`
	Cast                []CastMember    `json:"cast"`
	FilePath            string          `json:"file_path,omitempty"`
	PosterReference     string          `json:"poster_reference,omitempty"`
	AddedAt             time.Time       `json:"added_at"`
	WatchLog            []WatchLogEntry `json:"watch_log,omitempty"`
}

// HasGenre reports exact membership of genre in the entry's genre set.
func (e Entry) HasGenre(genre string) bool {
	return slices.Contains(e.Genres, genre)
}

// Clone returns a deep copy so callers never share slices with the store.
func (e Entry) Clone() Entry {
	out := e
	out.Genres = slices.Clone(e.Genres)
	out.Cast = slices.Clone(e.Cast)
	if e.WatchLog != nil {
		out.WatchLog = make([]WatchLogEntry, len(e.WatchLog))
		for i, w := range e.WatchLog {
			out.WatchLog[i] = w
			if w.Rating != nil {
				rating := *w.Rating
				out.WatchLog[i].Rating = &rating
			}
		}
	}
	return out
}

// withMetadataFrom returns next with the fields owned by the user (file
// association, creation time, watch history) carried over from e.
func (e Entry) withMetadataFrom(next Entry) Entry {
	out := next.Clone()
	out.FilePath = e.FilePath
	out.AddedAt = e.AddedAt
	out.WatchLog = e.Clone().WatchLog
	return out
}
