package memory

import (
	"context"
	"sync"

	"quiz-bot-service/internal/app"
)

// DraftStore is an in-memory implementation of app.DraftStore. Entries for
// different administrators may be touched concurrently; abandoned drafts
// stay until the process restarts.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[int64]app.Draft
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[int64]app.Draft)}
}

func (s *DraftStore) Get(_ context.Context, adminID int64) (app.Draft, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[adminID]
	return draft, ok, nil
}

func (s *DraftStore) Set(_ context.Context, adminID int64, draft app.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[adminID] = draft
	return nil
}

func (s *DraftStore) Delete(_ context.Context, adminID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, adminID)
	return nil
}
