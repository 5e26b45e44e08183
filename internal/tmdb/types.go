package tmdb

import (
	"strconv"
	"strings"
)

// MaxCandidates caps the number of search results returned to callers.
const MaxCandidates = 20

// Candidate is a ranked possible match returned by a title search.
type Candidate struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseYear int     `json:"release_year,omitempty"`
	Rating      float64 `json:"rating"`
}

type searchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []searchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CastCredit is one billed cast member.
type CastCredit struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

// CrewCredit is one crew member.
type CrewCredit struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Credits groups cast and crew returned via append_to_response=credits.
type Credits struct {
	Cast []CastCredit `json:"cast"`
	Crew []CrewCredit `json:"crew"`
}

// Movie captures the TMDB movie details payload including credits.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path"`
	Genres      []Genre `json:"genres"`
	Credits     Credits `json:"credits"`
}

// ReleaseYear parses the year from the release date, or 0 when unknown.
func (m *Movie) ReleaseYear() int {
	return parseYear(m.ReleaseDate)
}

// Director returns the first crew member credited as director.
func (m *Movie) Director() string {
	for _, member := range m.Credits.Crew {
		if strings.EqualFold(member.Job, "Director") {
			return member.Name
		}
	}
	return ""
}

// GenreNames returns genre names in TMDB order.
func (m *Movie) GenreNames() []string {
	names := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// TopCast returns up to n cast members in billing order.
func (m *Movie) TopCast(n int) []CastCredit {
	if n <= 0 || len(m.Credits.Cast) == 0 {
		return nil
	}
	if len(m.Credits.Cast) < n {
		n = len(m.Credits.Cast)
	}
	out := make([]CastCredit, n)
	copy(out, m.Credits.Cast[:n])
	return out
}

type externalIDs struct {
	ID     int64   `json:"id"`
	IMDbID *string `json:"imdb_id"`
}

func parseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
