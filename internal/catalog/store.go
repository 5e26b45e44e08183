package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"cinelog/internal/fileutil"
	"cinelog/internal/logging"
	"cinelog/internal/services"
)

// Store owns the authoritative set of catalog entries and writes every
// mutation through to a JSON file. All mutations are serialized; readers see
// whole entries only.
type Store struct {
	path   string
	logger *slog.Logger
	lock   *flock.Flock
	now    func() time.Time

	mu       sync.RWMutex
	entries  map[int64]Entry
	byPath   map[string]int64
	revision uint64
	// disk is the file content this store last read or wrote.
	disk []byte
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for AddedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the catalog at path. A missing or empty file is an empty
// catalog; an unparsable file fails with ErrCorruptStore and is left
// untouched on disk.
func Open(path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalog path required")
	}
	s := &Store{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "catalog"),
		lock:    flock.New(path + ".lock"),
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[int64]Entry),
		byPath:  make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Insert adds a new entry. It fails with ErrConflict when the id already
// exists or the file path is associated with another entry. AddedAt is set
// when zero and never changes afterwards.
func (s *Store) Insert(entry Entry) (Entry, error) {
	if entry.ID <= 0 {
		return Entry{}, fmt.Errorf("insert entry: id must be positive, got %d", entry.ID)
	}
	entry = entry.Clone()
	entry.FilePath = cleanPath(entry.FilePath)
	entry.Cast = capCast(entry.Cast)
	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.commit("insert", func() (func(), error) {
		if existing, ok := s.entries[entry.ID]; ok {
			return nil, services.Wrap(services.ErrConflict, "catalog", "insert",
				fmt.Sprintf("id %d already cataloged as %q", entry.ID, existing.Title), nil)
		}
		if err := s.checkPathFree(entry.FilePath, entry.ID); err != nil {
			return nil, err
		}
		s.put(entry)
		return func() { s.drop(entry.ID) }, nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.logger.Debug("catalog entry inserted",
		logging.Int64(logging.FieldEntryID, entry.ID),
		logging.String("title", entry.Title),
		logging.String(logging.FieldFile, entry.FilePath))
	return entry.Clone(), nil
}

// Update replaces the metadata of entry id with next while preserving its
// file association, AddedAt, and watch log. When next.ID differs from id the
// entry is re-keyed; the new id must not belong to another entry.
func (s *Store) Update(id int64, next Entry) (Entry, error) {
	if next.ID == 0 {
		next.ID = id
	}
	if next.ID <= 0 {
		return Entry{}, fmt.Errorf("update entry: id must be positive, got %d", next.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated Entry
	err := s.commit("update", func() (func(), error) {
		current, ok := s.entries[id]
		if !ok {
			return nil, notFound("update", id)
		}
		if next.ID != id {
			if other, taken := s.entries[next.ID]; taken {
				return nil, services.Wrap(services.ErrConflict, "catalog", "update",
					fmt.Sprintf("id %d already cataloged as %q", next.ID, other.Title), nil)
			}
		}
		updated = current.withMetadataFrom(next)
		updated.Cast = capCast(updated.Cast)
		s.drop(id)
		s.put(updated)
		return func() {
			s.drop(updated.ID)
			s.put(current)
		}, nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.logger.Debug("catalog entry updated",
		logging.Int64(logging.FieldEntryID, updated.ID),
		logging.Int64("previous_id", id),
		logging.String("title", updated.Title))
	return updated.Clone(), nil
}

// Remove deletes entry id. The associated video file is never touched.
func (s *Store) Remove(id int64) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed Entry
	err := s.commit("remove", func() (func(), error) {
		current, ok := s.entries[id]
		if !ok {
			return nil, notFound("remove", id)
		}
		removed = current
		s.drop(id)
		return func() { s.put(current) }, nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.logger.Debug("catalog entry removed", logging.Int64(logging.FieldEntryID, id))
	return removed.Clone(), nil
}

// AssociateFile sets the file path of entry id. An empty path clears the
// association. Associating a path already held by another entry fails with
// ErrConflict; re-associating the same path is a no-op.
func (s *Store) AssociateFile(id int64, path string) (Entry, error) {
	path = cleanPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated Entry
	err := s.commit("associate file", func() (func(), error) {
		current, ok := s.entries[id]
		if !ok {
			return nil, notFound("associate file", id)
		}
		updated = current.Clone()
		if current.FilePath == path {
			return nil, nil
		}
		if err := s.checkPathFree(path, id); err != nil {
			return nil, err
		}
		updated.FilePath = path
		s.drop(id)
		s.put(updated)
		return func() {
			s.drop(id)
			s.put(current)
		}, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return updated.Clone(), nil
}

// LogWatch appends a viewing to entry id's watch log.
func (s *Store) LogWatch(id int64, watch WatchLogEntry) (Entry, error) {
	watch.Date = strings.TrimSpace(watch.Date)
	if watch.Date == "" {
		watch.Date = s.now().Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, watch.Date); err != nil {
		return Entry{}, fmt.Errorf("watch date %q: expected YYYY-MM-DD", watch.Date)
	}
	if watch.Rating != nil && (*watch.Rating < 0 || *watch.Rating > 10) {
		return Entry{}, fmt.Errorf("watch rating %.1f out of range 0-10", *watch.Rating)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated Entry
	err := s.commit("log watch", func() (func(), error) {
		current, ok := s.entries[id]
		if !ok {
			return nil, notFound("log watch", id)
		}
		updated = current.Clone()
		updated.WatchLog = append(updated.WatchLog, watch)
		s.entries[id] = updated
		return func() { s.entries[id] = current }, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return updated.Clone(), nil
}

// Get returns a copy of entry id.
func (s *Store) Get(id int64) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return entry.Clone(), true
}

// EntryForFile returns the entry associated with path, if any.
func (s *Store) EntryForFile(path string) (Entry, bool) {
	path = cleanPath(path)
	if path == "" {
		return Entry{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return s.entries[id].Clone(), true
}

// HasFile reports whether any entry references path.
func (s *Store) HasFile(path string) bool {
	path = cleanPath(path)
	if path == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPath[path]
	return ok
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Revision increases by one with every committed mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Snapshot returns copies of all entries ordered by id together with the
// revision they were read at.
func (s *Store) Snapshot() ([]Entry, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, s.revision
}

// commit runs mutate and persists the result while holding the exclusive
// file lock. Changes written by other processes since this store last read or
// wrote the file are reloaded first, so mutate validates against and extends
// the committed state. A nil undo means nothing changed and nothing is
// written. A failed write reverts the in-memory change. Callers hold s.mu.
func (s *Store) commit(op string, mutate func() (undo func(), err error)) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock catalog: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := s.refresh(); err != nil {
		return err
	}
	undo, err := mutate()
	if err != nil || undo == nil {
		return err
	}

	data, err := s.encode()
	if err == nil {
		err = fileutil.WriteFileAtomic(s.path, data, 0o644)
	}
	if err != nil {
		undo()
		s.logger.Error("catalog write failed",
			logging.String("operation", op),
			logging.String("path", s.path),
			logging.Error(err))
		return fmt.Errorf("persist catalog (%s): %w", op, err)
	}
	s.disk = data
	s.revision++
	return nil
}

// refresh reloads the file when its content differs from what this store
// last read or wrote. Callers hold the file lock and s.mu.
func (s *Store) refresh() error {
	data, err := readCatalogFile(s.path)
	if err != nil {
		return err
	}
	if bytes.Equal(data, s.disk) {
		return nil
	}
	entries, byPath, err := s.decode(data)
	if err != nil {
		return err
	}
	s.entries, s.byPath, s.disk = entries, byPath, data
	s.revision++
	s.logger.Info("catalog changed on disk, reloaded",
		logging.Int("entry_count", len(entries)),
		logging.String("path", s.path))
	return nil
}

func (s *Store) put(entry Entry) {
	s.entries[entry.ID] = entry
	if entry.FilePath != "" {
		s.byPath[entry.FilePath] = entry.ID
	}
}

func (s *Store) drop(id int64) {
	entry, ok := s.entries[id]
	if !ok {
		return
	}
	if entry.FilePath != "" && s.byPath[entry.FilePath] == id {
		delete(s.byPath, entry.FilePath)
	}
	delete(s.entries, id)
}

func (s *Store) checkPathFree(path string, owner int64) error {
	if path == "" {
		return nil
	}
	if holder, ok := s.byPath[path]; ok && holder != owner {
		return services.Wrap(services.ErrConflict, "catalog", "associate file",
			fmt.Sprintf("%s already associated with entry %d", path, holder), nil)
	}
	return nil
}

func (s *Store) load() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}
	if err := s.lock.RLock(); err != nil {
		return fmt.Errorf("lock catalog: %w", err)
	}
	data, err := readCatalogFile(s.path)
	_ = s.lock.Unlock()
	if err != nil {
		return err
	}
	entries, byPath, err := s.decode(data)
	if err != nil {
		return err
	}
	s.entries, s.byPath, s.disk = entries, byPath, data

	s.logger.Debug("loaded catalog",
		logging.Int("entry_count", len(s.entries)),
		logging.String("path", s.path))
	return nil
}

// readCatalogFile returns the file content, or nil when it does not exist.
func readCatalogFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return data, nil
}

// decode parses catalog file content and builds the path index. Blank
// content is an empty catalog.
func (s *Store) decode(data []byte) (map[int64]Entry, map[string]int64, error) {
	entries := make(map[int64]Entry)
	byPath := make(map[string]int64)
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, byPath, nil
	}

	var records []Entry
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, services.Wrap(services.ErrCorruptStore, "catalog", "load", s.path, err)
	}
	for i, entry := range records {
		if entry.ID <= 0 {
			return nil, nil, services.Wrap(services.ErrCorruptStore, "catalog", "load",
				fmt.Sprintf("%s: record %d has invalid id %d", s.path, i, entry.ID), nil)
		}
		if _, dup := entries[entry.ID]; dup {
			return nil, nil, services.Wrap(services.ErrCorruptStore, "catalog", "load",
				fmt.Sprintf("%s: duplicate id %d", s.path, entry.ID), nil)
		}
		entry.FilePath = cleanPath(entry.FilePath)
		if entry.FilePath != "" {
			if holder, dup := byPath[entry.FilePath]; dup {
				return nil, nil, services.Wrap(services.ErrCorruptStore, "catalog", "load",
					fmt.Sprintf("%s: file %s shared by entries %d and %d", s.path, entry.FilePath, holder, entry.ID), nil)
			}
			byPath[entry.FilePath] = entry.ID
		}
		entries[entry.ID] = entry
	}
	return entries, byPath, nil
}

// encode renders the catalog sorted by id so unchanged catalogs serialize
// to identical bytes.
func (s *Store) encode() ([]byte, error) {
	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return append(data, '\n'), nil
}

func notFound(op string, id int64) error {
	return services.Wrap(services.ErrNotFound, "catalog", op, fmt.Sprintf("entry %d", id), nil)
}

func cleanPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func capCast(cast []CastMember) []CastMember {
	if len(cast) > MaxCast {
		return cast[:MaxCast]
	}
	return cast
}
