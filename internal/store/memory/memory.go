package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/store"
)

// Store keeps events in a map. Events are copied on the way in and out so
// callers never share detail pointers with the store.
type Store struct {
	mu     sync.RWMutex
	events map[uuid.UUID]model.CareEvent
	now    func() time.Time
}

var _ store.Repository = (*Store)(nil)

func NewStore() *Store {
	return &Store{events: make(map[uuid.UUID]model.CareEvent), now: time.Now}
}

func (s *Store) Insert(_ context.Context, e *model.CareEvent) error {
	if e == nil {
		return fmt.Errorf("care event is required")
	}
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if _, exists := s.events[e.ID]; exists {
		return fmt.Errorf("%w: %s", store.ErrConflict, e.ID)
	}
	now := s.now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	linkDetails(e)
	s.events[e.ID] = e.Clone()
	return nil
}

func (s *Store) Update(_ context.Context, e model.CareEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.events[e.ID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, e.ID)
	}
	e = e.Clone()
	e.CreatedAt = prev.CreatedAt
	e.UpdatedAt = s.now().UTC()
	linkDetails(&e)
	s.events[e.ID] = e
	return nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	delete(s.events, id)
	return nil
}

func (s *Store) DeleteMany(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.events[id]; !ok {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
	}
	for _, id := range ids {
		delete(s.events, id)
	}
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (model.CareEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return model.CareEvent{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return e.Clone(), nil
}

// ListAll returns events newest first.
func (s *Store) ListAll(_ context.Context) ([]model.CareEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CareEvent, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func linkDetails(e *model.CareEvent) {
	if e.Feeding != nil {
		e.Feeding.CareID = e.ID
	}
	if e.Diaper != nil {
		e.Diaper.CareID = e.ID
	}
}
