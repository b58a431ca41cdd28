package engine

import (
	"fmt"
	"time"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
)

// PlayerUpdate carries a partial change to the current players. Nil fields
// are left untouched.
type PlayerUpdate struct {
	StrikerID    *string `json:"striker_id,omitempty"`
	NonStrikerID *string `json:"non_striker_id,omitempty"`
	BowlerID     *string `json:"bowler_id,omitempty"`
	BowlingAngle *string `json:"bowling_angle,omitempty"`
}

// SelectNewBatsman seats playerID in the vacant crease slot, creating the
// batting line lazily. The striker slot is preferred when both are open.
func SelectNewBatsman(state *model.LiveScoreState, playerID string, now time.Time) error {
	if state == nil || state.Status != model.LiveStateLive {
		return ErrNotLive
	}
	players := &state.CurrentPlayers
	switch {
	case players.StrikerID == nil:
		players.StrikerID = model.StrPtr(playerID)
	case players.NonStrikerID == nil:
		players.NonStrikerID = model.StrPtr(playerID)
	default:
		return ErrNoVacantSlot
	}
	EnsureBattingLine(state, playerID)
	state.UpdatedAt = now
	return nil
}

// SelectNewBowler assigns the bowler for the next over, creating the
// bowling line lazily.
func SelectNewBowler(state *model.LiveScoreState, playerID string, now time.Time) error {
	if state == nil || state.Status != model.LiveStateLive {
		return ErrNotLive
	}
	state.CurrentPlayers.BowlerID = model.StrPtr(playerID)
	EnsureBowlingLine(state, playerID)
	state.UpdatedAt = now
	return nil
}

// UpdatePlayers applies a partial current-players change, creating lines
// lazily for any player named. Used by scorers to fix seating or record a
// bowling-angle change mid-over.
func UpdatePlayers(state *model.LiveScoreState, upd PlayerUpdate, now time.Time) error {
	if state == nil || state.Status != model.LiveStateLive {
		return ErrNotLive
	}
	players := &state.CurrentPlayers
	if upd.StrikerID != nil {
		players.StrikerID = upd.StrikerID
		EnsureBattingLine(state, *upd.StrikerID)
	}
	if upd.NonStrikerID != nil {
		players.NonStrikerID = upd.NonStrikerID
		EnsureBattingLine(state, *upd.NonStrikerID)
	}
	if upd.BowlerID != nil {
		players.BowlerID = upd.BowlerID
		EnsureBowlingLine(state, *upd.BowlerID)
	}
	if upd.BowlingAngle != nil {
		players.BowlingAngle = *upd.BowlingAngle
	}
	state.UpdatedAt = now
	return nil
}

// RetireBatter removes a seated batter from the crease. retirementType is
// recorded as the dismissal type; both retired-hurt and retired-out mark
// the line out for seating purposes, so a retired batter never reappears
// as an undo slot candidate.
func RetireBatter(state *model.LiveScoreState, playerID, retirementType string, now time.Time) error {
	if state == nil || state.Status != model.LiveStateLive {
		return ErrNotLive
	}
	if retirementType != model.WicketRetiredHurt && retirementType != model.WicketRetiredOut {
		return fmt.Errorf("%w: retirement type %q", model.ErrInvalidWicket, retirementType)
	}

	line, ok := state.Batsmen[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}

	players := &state.CurrentPlayers
	switch {
	case players.StrikerID != nil && *players.StrikerID == playerID:
		players.StrikerID = nil
	case players.NonStrikerID != nil && *players.NonStrikerID == playerID:
		players.NonStrikerID = nil
	default:
		return fmt.Errorf("%w: %s", ErrPlayerNotBatting, playerID)
	}

	line.IsOut = true
	line.DismissalType = model.StrPtr(retirementType)
	state.Batsmen[playerID] = line
	state.UpdatedAt = now
	return nil
}
