package engine

import "errors"

// Error taxonomy for the scoring engine. Every mutating operation either
// fully commits or reports one of these; there is no partial write.
var (
	// ErrNotLive is returned when no active live state exists for the match.
	ErrNotLive = errors.New("engine: match is not live")

	// ErrMissingPlayers is returned when the striker, non-striker, or
	// bowler slot is awaiting selection. Scoring is rejected, not queued.
	ErrMissingPlayers = errors.New("engine: striker, non-striker or bowler not selected")

	// ErrInningsClosed is returned when the innings can accept no more
	// deliveries (10 wickets down, or the overs limit reached).
	ErrInningsClosed = errors.New("engine: innings already closed")

	// ErrNoBallsToUndo is returned when undo is called on an empty history.
	ErrNoBallsToUndo = errors.New("engine: no balls to undo")

	// ErrPlayerNotFound is returned when a retire/selection target has no
	// line in the current innings.
	ErrPlayerNotFound = errors.New("engine: player not found in innings")

	// ErrPlayerNotBatting is returned when a retire target is not at the
	// crease.
	ErrPlayerNotBatting = errors.New("engine: player is not currently batting")

	// ErrNoVacantSlot is returned when a new batter is offered but both
	// crease slots are occupied.
	ErrNoVacantSlot = errors.New("engine: no vacant batting slot")

	// ErrWrongInnings is returned for a lifecycle transition attempted from
	// the wrong state.
	ErrWrongInnings = errors.New("engine: transition not valid for current innings state")
)
