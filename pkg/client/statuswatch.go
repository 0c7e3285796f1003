package client

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// StatusChange describes one observed status transition.
type StatusChange struct {
	IssueID   string
	Title     string
	OldStatus string
	NewStatus string
}

// Message renders the user-facing notification text.
func (c StatusChange) Message() string {
	phrase := map[string]string{
		"open":        "is now open",
		"in_progress": "is now being worked on",
		"resolved":    "has been resolved",
	}[c.NewStatus]
	if phrase == "" {
		phrase = fmt.Sprintf("status changed to %s", c.NewStatus)
	}
	return fmt.Sprintf("%q %s", c.Title, phrase)
}

// StatusStore persists the issueId-to-status map between fetches.
type StatusStore interface {
	Load() (map[string]string, error)
	Save(map[string]string) error
	Clear() error
}

// StatusWatcher diffs successive fetches of the caller's own issues and
// reports status transitions. An issue's first-ever sighting is recorded
// without notifying, so a fresh login does not replay history.
type StatusWatcher struct {
	store  StatusStore
	notify func(StatusChange)
}

// NewStatusWatcher builds a watcher. notify runs synchronously for each
// detected transition.
func NewStatusWatcher(store StatusStore, notify func(StatusChange)) *StatusWatcher {
	return &StatusWatcher{store: store, notify: notify}
}

// CheckAndNotify compares the fetched issues against the persisted map,
// emits one notification per changed status, then overwrites the map
// with the current statuses.
func (w *StatusWatcher) CheckAndNotify(issues []Issue) error {
	known, err := w.store.Load()
	if err != nil {
		return err
	}

	for i := range issues {
		issue := &issues[i]
		old, seen := known[issue.Key()]
		if seen && old != issue.Status && w.notify != nil {
			w.notify(StatusChange{
				IssueID:   issue.Key(),
				Title:     issue.Title,
				OldStatus: old,
				NewStatus: issue.Status,
			})
		}
	}

	current := make(map[string]string, len(issues))
	for i := range issues {
		current[issues[i].Key()] = issues[i].Status
	}
	return w.store.Save(current)
}

// Clear forgets all known statuses, for logout.
func (w *StatusWatcher) Clear() error {
	return w.store.Clear()
}

// MemoryStatusStore keeps the status map in memory.
type MemoryStatusStore struct {
	mu       sync.Mutex
	statuses map[string]string
}

// NewMemoryStatusStore returns an empty in-memory store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{}
}

func (s *MemoryStatusStore) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStatusStore) Save(statuses map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = make(map[string]string, len(statuses))
	for k, v := range statuses {
		s.statuses[k] = v
	}
	return nil
}

func (s *MemoryStatusStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = nil
	return nil
}

// FileStatusStore persists the status map as JSON at a fixed path.
type FileStatusStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStatusStore returns a store backed by the given file.
func NewFileStatusStore(path string) *FileStatusStore {
	return &FileStatusStore{path: path}
}

func (s *FileStatusStore) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	statuses := map[string]string{}
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (s *FileStatusStore) Save(statuses map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(statuses)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStatusStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
