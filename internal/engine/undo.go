package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/stats"
)

// UndoResult reports what was rolled back.
type UndoResult struct {
	UndoneRuns int             `json:"undone_runs"`
	UndoneBall model.BallEvent `json:"undone_ball"`
}

// Undo reverses the most recently committed delivery exactly, pops it from
// the ball history, and appends an audit entry to the undo log. Only the
// single most recent ball may ever be undone; repeated calls walk the
// history back one delivery at a time.
func Undo(state *model.LiveScoreState, reason, actor string, now time.Time) (*UndoResult, error) {
	if state == nil || state.Status != model.LiveStateLive {
		return nil, ErrNotLive
	}
	if len(state.BallHistory) == 0 {
		return nil, ErrNoBallsToUndo
	}

	ball := state.BallHistory[len(state.BallHistory)-1]
	inn := &state.CurrentInnings

	// Swap parity is derived from the state as committed: the over was
	// complete iff the undone ball was legal and the counter sits on a
	// multiple of six right now, before the decrement below.
	wasOverComplete := ball.IsLegal() && inn.LegalBallsBowled > 0 && inn.LegalBallsBowled%6 == 0
	oddRuns := ball.TotalRuns()%2 == 1

	inn.Runs = clampInt(inn.Runs - ball.TotalRuns())
	if ball.IsLegal() {
		inn.LegalBallsBowled = clampInt(inn.LegalBallsBowled - 1)
	}
	inn.Overs = stats.OversDisplay(inn.LegalBallsBowled)

	batLine := state.Batsmen[ball.StrikerID]
	batLine = stats.RevertBatting(batLine, &ball)
	if ball.IsWicket {
		inn.Wickets = clampInt(inn.Wickets - 1)
		batLine.IsOut = false
		batLine.DismissalType = nil
		batLine.BowlerID = nil
	}
	state.Batsmen[ball.StrikerID] = batLine
	state.Bowlers[ball.BowlerID] = stats.RevertBowling(state.Bowlers[ball.BowlerID], &ball)

	restorePlayers(state, &ball, oddRuns, wasOverComplete)

	state.BallHistory = state.BallHistory[:len(state.BallHistory)-1]
	state.UndoLog = append(state.UndoLog, model.UndoEntry{
		ID:         uuid.New().String(),
		UndoneBall: ball,
		Reason:     reason,
		Actor:      actor,
		Timestamp:  now,
	})
	state.UpdatedAt = now

	return &UndoResult{UndoneRuns: ball.TotalRuns(), UndoneBall: ball}, nil
}

// restorePlayers inverts the strike-rotation stage of the processor. The
// forward pass may have swapped the crease slots zero, one, or two times
// and then cleared the post-swap striker slot on a wicket; the inverse
// re-derives the pre-ball seating rather than swapping back unconditionally,
// since a double swap cancels.
func restorePlayers(state *model.LiveScoreState, ball *model.BallEvent, oddRuns, wasOverComplete bool) {
	players := &state.CurrentPlayers

	if wasOverComplete {
		players.BowlerID = model.StrPtr(ball.BowlerID)
	}

	if ball.IsWicket {
		// Re-fill the slot the wicket vacated. With no net swap the cleared
		// slot held the dismissed striker. With a net swap it held the other
		// batter, who is re-derived as the only not-out batter no longer
		// seated (the dismissed striker's line was already restored).
		netSwap := oddRuns != wasOverComplete
		if netSwap {
			players.StrikerID = findUnseatedNotOut(state, ball.StrikerID)
		} else {
			players.StrikerID = model.StrPtr(ball.StrikerID)
		}
	}

	// Swaps are involutions, so re-applying each one undoes it.
	if wasOverComplete {
		players.StrikerID, players.NonStrikerID = players.NonStrikerID, players.StrikerID
	}
	if oddRuns {
		players.StrikerID, players.NonStrikerID = players.NonStrikerID, players.StrikerID
	}
}

// findUnseatedNotOut returns the lone batter with a not-out line who is not
// occupying a crease slot. Falls back to the dismissed striker if the
// candidate is ambiguous, which only happens if the history was tampered
// with outside the engine.
func findUnseatedNotOut(state *model.LiveScoreState, dismissedID string) *string {
	seated := map[string]bool{}
	if s := state.CurrentPlayers.StrikerID; s != nil {
		seated[*s] = true
	}
	if s := state.CurrentPlayers.NonStrikerID; s != nil {
		seated[*s] = true
	}

	var candidate *string
	for id, line := range state.Batsmen {
		if line.IsOut || seated[id] || id == dismissedID {
			continue
		}
		if candidate != nil {
			return model.StrPtr(dismissedID)
		}
		candidate = model.StrPtr(id)
	}
	if candidate == nil {
		return model.StrPtr(dismissedID)
	}
	return candidate
}

func clampInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
