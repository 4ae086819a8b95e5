package ingest

import (
	"sync"
	"time"
)

// Status values for a document moving through the pipeline.
const (
	StatusPending    = "pending"
	StatusExtracting = "extracting"
	StatusGenerating = "generating"
	StatusPersisting = "persisting"
	StatusIndexing   = "indexing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// StatusEntry is a point-in-time snapshot of one document's progress.
type StatusEntry struct {
	DocumentID string
	Status     string
	Error      string
	UpdatedAt  time.Time
}

// StatusStore tracks ingestion status by document id. Safe for concurrent
// use from parallel ingestions.
type StatusStore struct {
	mu      sync.RWMutex
	entries map[string]StatusEntry
}

func NewStatusStore() *StatusStore {
	return &StatusStore{entries: make(map[string]StatusEntry)}
}

// Set records the current status for a document.
func (s *StatusStore) Set(documentID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[documentID] = StatusEntry{
		DocumentID: documentID,
		Status:     status,
		UpdatedAt:  time.Now(),
	}
}

// Fail records a terminal failure with its reason.
func (s *StatusStore) Fail(documentID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := StatusEntry{
		DocumentID: documentID,
		Status:     StatusFailed,
		UpdatedAt:  time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.entries[documentID] = entry
}

// Get returns the status entry for a document.
func (s *StatusStore) Get(documentID string) (StatusEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[documentID]
	return entry, ok
}

// List returns a snapshot of all entries.
func (s *StatusStore) List() []StatusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StatusEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Remove drops a document's entry, typically after deletion.
func (s *StatusStore) Remove(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, documentID)
}
