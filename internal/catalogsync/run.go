package catalogsync

import (
	"fmt"
	"time"
)

// Status is the outcome class of one path in a run.
type Status string

const (
	StatusAdded   Status = "added"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome reports what happened to one input path.
type Outcome struct {
	Path    string `json:"path"`
	Status  Status `json:"status"`
	EntryID int64  `json:"entry_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Line renders the outcome as a single progress line.
func (o Outcome) Line() string {
	switch o.Status {
	case StatusAdded:
		return fmt.Sprintf("added   %s -> %s (%d)", o.Path, o.Title, o.EntryID)
	case StatusSkipped:
		return fmt.Sprintf("skipped %s: %s", o.Path, o.Reason)
	default:
		return fmt.Sprintf("failed  %s: %s", o.Path, o.Reason)
	}
}

// Progress is published after each outcome is recorded.
type Progress struct {
	RunID   string
	Outcome Outcome
	Added   int
	Skipped int
	Failed  int
	Total   int
}

// Done returns how many paths have been accounted for so far.
func (p Progress) Done() int {
	return p.Added + p.Skipped + p.Failed
}

// Run describes one synchronize invocation. Every input path appears in
// Outcomes exactly once.
type Run struct {
	ID         string    `json:"id"`
	Paths      []string  `json:"paths"`
	Limit      int       `json:"concurrency"`
	Added      int       `json:"added"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"outcomes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Total returns the number of recorded outcomes.
func (r *Run) Total() int {
	return r.Added + r.Skipped + r.Failed
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders the final counts.
func (r *Run) Summary() string {
	return fmt.Sprintf("%d added, %d skipped, %d failed", r.Added, r.Skipped, r.Failed)
}

func (r *Run) record(o Outcome) {
	switch o.Status {
	case StatusAdded:
		r.Added++
	case StatusSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}
