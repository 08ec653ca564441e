// Package checkpoint persists scrape outcomes and resume progress to the
// local filesystem.
package checkpoint

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bhargavak04/Book-My-Player-Scrape/internal/scrape"
)

const (
	progressFile = "progress.json"
	resultsFile  = "results.jsonl"
)

// progressState is the durable progress marker.
type progressState struct {
	NextIndex int       `json:"next_index"`
	TotalRows int       `json:"total_rows,omitempty"`
	LastFlush time.Time `json:"last_flush"`
}

// Store is a file-backed scrape.Store. Outcomes live in memory between
// flushes; Flush rewrites the results file and progress marker atomically so
// a crash loses at most the outcomes recorded since the last flush.
type Store struct {
	dir    string
	logger *zap.Logger

	mu        sync.Mutex
	nextIndex int
	totalRows int
	outcomes  map[int]scrape.Outcome
	lastFlush time.Time
}

// Open loads prior persisted state from dir, creating the directory if
// needed. Corrupt or unreadable checkpoint data logs a warning and starts
// fresh rather than aborting: durability of old progress must not block new
// progress.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &scrape.StoreIOError{Op: "open", Path: dir, Err: err}
	}
	s := &Store{
		dir:      dir,
		logger:   logger,
		outcomes: make(map[int]scrape.Outcome),
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	var progress progressState
	progressPath := filepath.Join(s.dir, progressFile)
	if err := readJSON(progressPath, &progress); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("checkpoint progress unreadable, starting fresh", zap.Error(err))
		}
		return
	}

	outcomes, err := readResults(filepath.Join(s.dir, resultsFile))
	if err != nil {
		s.logger.Warn("checkpoint results unreadable, starting fresh", zap.Error(err))
		return
	}

	s.nextIndex = progress.NextIndex
	s.totalRows = progress.TotalRows
	s.lastFlush = progress.LastFlush
	s.outcomes = outcomes
	s.logger.Info("checkpoint loaded",
		zap.Int("next_index", s.nextIndex),
		zap.Int("outcomes", len(outcomes)),
		zap.Time("last_flush", s.lastFlush),
	)
}

func readResults(path string) (map[int]scrape.Outcome, error) {
	outcomes := make(map[int]scrape.Outcome)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return outcomes, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var outcome scrape.Outcome
		if err := json.Unmarshal(line, &outcome); err != nil {
			return nil, err
		}
		outcomes[outcome.Index] = outcome
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// NextIndex returns the first unprocessed row index.
func (s *Store) NextIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextIndex
}

// TotalRows returns the input row count recorded by a prior run, or 0.
func (s *Store) TotalRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalRows
}

// SetTotalRows records the input row count for resume validation.
func (s *Store) SetTotalRows(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRows = n
}

// Record appends the outcome for an index. A replay of an equal outcome is
// a no-op; a different outcome for a recorded index signals a driver bug.
func (s *Store) Record(index int, outcome scrape.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.outcomes[index]; ok {
		if existing.Equal(outcome) {
			return nil
		}
		return &scrape.ConsistencyError{
			Index:  index,
			Detail: "recorded twice with different outcomes",
		}
	}
	s.outcomes[index] = outcome
	return nil
}

// Advance raises the next-index watermark; it never decreases.
func (s *Store) Advance(to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if to > s.nextIndex {
		s.nextIndex = to
	}
}

// Flush durably writes the results file then the progress marker. Both use
// write-temp-then-rename, so a crash during flush leaves the previous
// flush's files intact.
func (s *Store) Flush() error {
	s.mu.Lock()
	outcomes := s.sortedLocked()
	progress := progressState{
		NextIndex: s.nextIndex,
		TotalRows: s.totalRows,
		LastFlush: time.Now().UTC(),
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, outcome := range outcomes {
		if err := enc.Encode(outcome); err != nil {
			return &scrape.StoreIOError{Op: "encode", Path: resultsFile, Err: err}
		}
	}

	resultsPath := filepath.Join(s.dir, resultsFile)
	if err := writeFileAtomic(resultsPath, buf.Bytes()); err != nil {
		return &scrape.StoreIOError{Op: "flush", Path: resultsPath, Err: err}
	}

	progressPath := filepath.Join(s.dir, progressFile)
	if err := writeJSONAtomic(progressPath, progress); err != nil {
		return &scrape.StoreIOError{Op: "flush", Path: progressPath, Err: err}
	}

	s.mu.Lock()
	s.lastFlush = progress.LastFlush
	s.mu.Unlock()
	return nil
}

// Outcomes returns all recorded outcomes in ascending index order.
func (s *Store) Outcomes() []scrape.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Store) sortedLocked() []scrape.Outcome {
	out := make([]scrape.Outcome, 0, len(s.outcomes))
	for _, outcome := range s.outcomes {
		out = append(out, outcome)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
