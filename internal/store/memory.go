package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence). Deep copies go
// through JSON so callers can never alias the stored state.
type MemoryStore struct {
	mu      sync.Mutex
	matches map[string]*model.Match
	states  map[string]*model.LiveScoreState
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]*model.Match),
		states:  make(map[string]*model.LiveScoreState),
	}
}

func (s *MemoryStore) CreateMatch(_ context.Context, m *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.ID]; ok {
		return fmt.Errorf("match %s already exists", m.ID)
	}
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) ListMatches(_ context.Context) ([]model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]model.Match, 0, len(s.matches))
	for _, m := range s.matches {
		matches = append(matches, *m)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (s *MemoryStore) UpdateMatchStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	m.Status = status
	return nil
}

func (s *MemoryStore) CreateLiveState(_ context.Context, state *model.LiveScoreState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[state.MatchID]; ok {
		return fmt.Errorf("%w: %s", ErrStateExists, state.MatchID)
	}
	cp, err := copyState(state)
	if err != nil {
		return err
	}
	s.states[state.MatchID] = cp
	return nil
}

func (s *MemoryStore) GetLiveState(_ context.Context, matchID string) (*model.LiveScoreState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, matchID)
	}
	return copyState(st)
}

// WithLiveState holds the store lock for the duration of fn, which gives
// the same serialized read-modify-write the Postgres row lock provides.
func (s *MemoryStore) WithLiveState(_ context.Context, matchID string, fn func(*model.LiveScoreState) error) (*model.LiveScoreState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, matchID)
	}

	working, err := copyState(st)
	if err != nil {
		return nil, err
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	s.states[matchID] = working

	return copyState(working)
}

func copyState(st *model.LiveScoreState) (*model.LiveScoreState, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	var cp model.LiveScoreState
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}
