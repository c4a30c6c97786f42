package memory

import (
	"context"
	"sync"
	"time"

	"github.com/medhublabs/medhub/pkg/session"
)

// Store is an in-memory implementation of the session.ProfileStore
// interface.
type Store struct {
	mu      sync.RWMutex
	records map[string]session.ProfileRecord
}

// New creates a new in-memory profile store.
func New() *Store {
	return &Store{records: make(map[string]session.ProfileRecord)}
}

// Get returns the record for an identity, or session.ErrProfileNotFound.
func (s *Store) Get(ctx context.Context, identityID string) (*session.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[identityID]
	if !ok {
		return nil, session.ErrProfileNotFound
	}
	recCopy := rec
	return &recCopy, nil
}

// Set creates or replaces the record for an identity.
func (s *Store) Set(ctx context.Context, identityID string, rec session.ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[identityID] = rec
	return nil
}

// Update applies a partial update to an existing record.
func (s *Store) Update(ctx context.Context, identityID string, upd session.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identityID]
	if !ok {
		return session.ErrProfileNotFound
	}

	if upd.DisplayName != nil {
		rec.DisplayName = *upd.DisplayName
	}
	if upd.Institution != nil {
		rec.Institution = *upd.Institution
	}
	if upd.CohortYear != nil {
		rec.CohortYear = *upd.CohortYear
	}
	rec.UpdatedAt = time.Now().UTC()

	s.records[identityID] = rec
	return nil
}
