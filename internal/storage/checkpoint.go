package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

// Checkpoint is the persisted form of a CheckpointStore.
type Checkpoint struct {
	RunID     string   `json:"run_id,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Completed []string `json:"completed"`
}

// CheckpointStore tracks completed (league, season) pairs.
type CheckpointStore struct {
	path  string
	runID string

	mu   sync.Mutex
	done map[record.SeasonKey]bool
}

// NewCheckpointStore returns an empty store backed by path. runID is
// recorded in the file on every Save.
func NewCheckpointStore(path, runID string) *CheckpointStore {
	return &CheckpointStore{
		path:  path,
		runID: runID,
		done:  make(map[record.SeasonKey]bool),
	}
}

// Path returns the checkpoint file location.
func (s *CheckpointStore) Path() string {
	return s.path
}

// Load reads the checkpoint file. A missing file leaves the store empty.
func (s *CheckpointStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return fmt.Errorf("parsing checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range cp.Completed {
		key, err := record.ParseSeasonKey(k)
		if err != nil {
			return fmt.Errorf("parsing checkpoint: %w", err)
		}
		s.done[key] = true
	}
	return nil
}

// IsDone reports whether key was completed by this or an earlier run.
func (s *CheckpointStore) IsDone(key record.SeasonKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[key]
}

// MarkDone records key as completed. Call Save to persist it.
func (s *CheckpointStore) MarkDone(key record.SeasonKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[key] = true
}

// Completed returns the completed keys ordered by league, then season.
func (s *CheckpointStore) Completed() []record.SeasonKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]record.SeasonKey, 0, len(s.done))
	for k := range s.done {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Save writes the checkpoint file.
func (s *CheckpointStore) Save() error {
	keys := s.Completed()
	cp := Checkpoint{
		RunID:     s.runID,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Completed: make([]string, len(keys)),
	}
	for i, k := range keys {
		cp.Completed[i] = k.String()
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}
