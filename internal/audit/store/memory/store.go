// Package memory is an in-process audit store for tests and local runs
// without a database.
package memory

import (
	"context"
	"sync"

	"opsconsole/internal/account/models"
)

type Store struct {
	mu      sync.RWMutex
	entries []models.AuditLogEntry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// ListRecent returns the newest entries first, by insertion order.
func (s *Store) ListRecent(_ context.Context, limit int) ([]models.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]models.AuditLogEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// All returns every entry in insertion order.
func (s *Store) All() []models.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLogEntry{}, s.entries...)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
