package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cinelog/internal/catalog"
	"cinelog/internal/logging"
	"cinelog/internal/scanner"
	"cinelog/internal/services"
	"cinelog/internal/tmdb"
)

// DefaultConcurrency is the worker count used when a run asks for none.
const DefaultConcurrency = 10

// Store is the subset of the catalog store the coordinator merges into.
type Store interface {
	HasFile(path string) bool
	Get(id int64) (catalog.Entry, bool)
	Insert(entry catalog.Entry) (catalog.Entry, error)
	AssociateFile(id int64, path string) (catalog.Entry, error)
}

// EntrySource resolves a search title to a catalog entry.
type EntrySource interface {
	BestMatch(ctx context.Context, title string) (tmdb.Candidate, error)
	Build(ctx context.Context, id int64) (catalog.Entry, error)
}

// Coordinator runs catalog synchronization. A Coordinator may be shared, but
// callers should not run overlapping synchronizations against one store.
type Coordinator struct {
	store    Store
	source   EntrySource
	base     *slog.Logger
	logger   *slog.Logger
	observer func(Progress)
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver registers fn to receive a Progress after every outcome. Calls
// are sequential and made from the run's collector goroutine.
func WithObserver(fn func(Progress)) Option {
	return func(c *Coordinator) {
		c.observer = fn
	}
}

// WithClock overrides the time source for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Coordinator.
func New(store Store, source EntrySource, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		source: source,
		base:   logger,
		logger: logging.NewComponentLogger(logger, "catalogsync"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pipelineResult is what a worker hands back to the collector.
type pipelineResult struct {
	path      string
	candidate tmdb.Candidate
	entry     catalog.Entry
	// existing is set when the matched id was already cataloged and no
	// details were fetched.
	existing bool
	err      error
}

// Synchronize catalogs every path not already associated with an entry.
// New paths are processed by at most limit concurrent pipelines; results are
// merged into the store one at a time as they complete. Per-file failures are
// recorded in the returned Run and never abort the remaining work.
func (c *Coordinator) Synchronize(ctx context.Context, paths []string, limit int) *Run {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	run := &Run{
		ID:        uuid.NewString(),
		Paths:     append([]string(nil), paths...),
		Limit:     limit,
		StartedAt: c.now(),
	}
	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("sync started",
		logging.Int("path_count", len(paths)),
		logging.Int("concurrency", limit))

	total := len(paths)
	record := func(o Outcome) {
		run.record(o)
		if o.Status == StatusFailed {
			logger.Warn("sync file failed",
				logging.String(logging.FieldFile, o.Path),
				logging.String("kind", o.Kind),
				logging.String("reason", o.Reason))
		} else {
			logger.Debug("sync file "+string(o.Status),
				logging.String(logging.FieldFile, o.Path),
				logging.Int64(logging.FieldEntryID, o.EntryID))
		}
		if c.observer != nil {
			c.observer(Progress{
				RunID:   run.ID,
				Outcome: o,
				Added:   run.Added,
				Skipped: run.Skipped,
				Failed:  run.Failed,
				Total:   total,
			})
		}
	}

	newPaths := c.partition(paths, record)

	jobs := make(chan string)
	results := make(chan pipelineResult)
	workers := min(limit, len(newPaths))
	for range workers {
		go func() {
			for path := range jobs {
				results <- c.process(ctx, path)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, path := range newPaths {
			jobs <- path
		}
	}()

	for range newPaths {
		record(c.merge(<-results))
	}

	run.FinishedAt = c.now()
	logger.Info("sync finished",
		logging.Int("added", run.Added),
		logging.Int("skipped", run.Skipped),
		logging.Int("failed", run.Failed),
		logging.Duration("duration", run.Duration()))
	return run
}

// SynchronizeAsync runs Synchronize in the background. The returned channel
// yields the finished Run once and is then closed.
func (c *Coordinator) SynchronizeAsync(ctx context.Context, paths []string, limit int) <-chan *Run {
	done := make(chan *Run, 1)
	go func() {
		defer close(done)
		done <- c.Synchronize(ctx, paths, limit)
	}()
	return done
}

// SyncDirectories scans dirs and synchronizes the files found. Directory
// warnings are returned alongside the run.
func (c *Coordinator) SyncDirectories(ctx context.Context, dirs []string, limit int) (*Run, []scanner.Warning) {
	scan := scanner.Scan(dirs, c.base)
	return c.Synchronize(ctx, scan.Paths, limit), scan.Warnings
}

// partition records skipped outcomes for repeated or already cataloged paths
// and returns the remaining paths in input order.
func (c *Coordinator) partition(paths []string, record func(Outcome)) []string {
	seen := make(map[string]struct{}, len(paths))
	fresh := make([]string, 0, len(paths))
	for _, raw := range paths {
		path, err := normalizePath(raw)
		if err != nil {
			record(Outcome{Path: raw, Status: StatusFailed, Kind: services.Kind(err), Reason: err.Error()})
			continue
		}
		if _, dup := seen[path]; dup {
			record(Outcome{Path: path, Status: StatusSkipped, Reason: "duplicate path in this run"})
			continue
		}
		seen[path] = struct{}{}
		if c.store.HasFile(path) {
			record(Outcome{Path: path, Status: StatusSkipped, Reason: "already cataloged"})
			continue
		}
		fresh = append(fresh, path)
	}
	return fresh
}

// process is one per-file pipeline: derive title, search, take the top
// match, and build the full entry.
func (c *Coordinator) process(ctx context.Context, path string) pipelineResult {
	ctx = services.WithFile(ctx, path)
	res := pipelineResult{path: path}
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	title := scanner.TitleFromPath(path)
	candidate, err := c.source.BestMatch(ctx, title)
	if err != nil {
		res.err = err
		return res
	}
	res.candidate = candidate

	if _, ok := c.store.Get(candidate.ID); ok {
		res.existing = true
		return res
	}
	entry, err := c.source.Build(ctx, candidate.ID)
	if err != nil {
		res.err = err
		return res
	}
	entry.FilePath = path
	res.entry = entry
	return res
}

// merge applies one pipeline result to the store. It runs on the collector
// goroutine only.
func (c *Coordinator) merge(res pipelineResult) Outcome {
	outcome := Outcome{Path: res.path, EntryID: res.candidate.ID, Title: res.candidate.Title}
	if res.err != nil {
		return failed(outcome, res.err)
	}

	if existing, ok := c.store.Get(res.candidate.ID); ok {
		if existing.FilePath != "" {
			err := services.Wrap(services.ErrConflict, "catalogsync", "merge",
				fmt.Sprintf("matched %q (%d), already cataloged for %s", existing.Title, existing.ID, existing.FilePath), nil)
			return failed(outcome, err)
		}
		entry, err := c.store.AssociateFile(existing.ID, res.path)
		if err != nil {
			return failed(outcome, err)
		}
		outcome.Title = entry.Title
		outcome.Status = StatusAdded
		return outcome
	}
	if res.existing {
		err := services.Wrap(services.ErrConflict, "catalogsync", "merge",
			fmt.Sprintf("entry %d removed during sync", res.candidate.ID), nil)
		return failed(outcome, err)
	}

	entry, err := c.store.Insert(res.entry)
	if err != nil {
		return failed(outcome, err)
	}
	outcome.EntryID = entry.ID
	outcome.Title = entry.Title
	outcome.Status = StatusAdded
	return outcome
}

func failed(o Outcome, err error) Outcome {
	o.Status = StatusFailed
	o.Kind = services.Kind(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		o.Kind = "canceled"
	}
	o.Reason = err.Error()
	return o
}

func normalizePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return abs, nil
}
