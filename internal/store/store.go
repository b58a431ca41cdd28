// Package store defines persistence for matches and live-score state.
// Implementations include PostgreSQL (source of truth, row-locked
// transactions), Redis (read-through cache plus pub/sub change feed), and
// in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
)

var (
	// ErrMatchNotFound is returned when no match exists for the ID.
	ErrMatchNotFound = errors.New("store: match not found")

	// ErrStateNotFound is returned when a match has no live state.
	ErrStateNotFound = errors.New("store: live state not found")

	// ErrStateExists is returned when a live state already exists for the
	// match being initialized.
	ErrStateExists = errors.New("store: live state already exists")
)

// Store is the persistence interface. Every mutation of a match's live
// state must go through WithLiveState, which guarantees one atomic
// read-modify-write per call: two scorers acting in the same instant cannot
// interleave partial updates. Commits to one match are totally ordered;
// there is no ordering guarantee across matches.
type Store interface {
	// --- Match records ---

	// CreateMatch persists a new match.
	CreateMatch(ctx context.Context, m *model.Match) error

	// GetMatch retrieves a match by ID.
	GetMatch(ctx context.Context, id string) (*model.Match, error)

	// ListMatches returns all matches, newest first.
	ListMatches(ctx context.Context) ([]model.Match, error)

	// UpdateMatchStatus moves a match between lifecycle statuses.
	UpdateMatchStatus(ctx context.Context, id, status string) error

	// --- Live score state ---

	// CreateLiveState persists the initial live state for a match.
	// Fails with ErrStateExists if one is already present.
	CreateLiveState(ctx context.Context, state *model.LiveScoreState) error

	// GetLiveState returns the current live state snapshot for viewers.
	GetLiveState(ctx context.Context, matchID string) (*model.LiveScoreState, error)

	// WithLiveState loads the state under a write lock, applies fn, and
	// persists the mutated state in the same transaction. If fn returns an
	// error nothing is written. Returns the committed state.
	WithLiveState(ctx context.Context, matchID string, fn func(*model.LiveScoreState) error) (*model.LiveScoreState, error)
}
