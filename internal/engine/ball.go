// Package engine implements the live-scoring state machine: the ball event
// processor, exact undo, and innings lifecycle transitions.
//
// All functions operate on a LiveScoreState loaded inside a store
// transaction; the engine itself performs no I/O.
package engine

import (
	"time"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/stats"
)

// Batting milestones, in runs. A milestone fires when the striker's tally
// lands exactly on one of these values — crossing 51 with a boundary does
// not retroactively fire 50.
var milestones = []int{50, 100, 150}

// Signals carries the derived observations from one committed delivery.
type Signals struct {
	Milestone      *int `json:"milestone,omitempty"`
	IsWicket       bool `json:"is_wicket"`
	IsDuck         bool `json:"is_duck"`
	IsOverComplete bool `json:"is_over_complete"`
	IsMaidenOver   bool `json:"is_maiden_over"`
	IsHatTrick     bool `json:"is_hat_trick"`
}

// EnsureBattingLine creates a zeroed batting line for playerID if none
// exists. Additive and idempotent, so concurrent first-selection of the
// same player merges safely.
func EnsureBattingLine(state *model.LiveScoreState, playerID string) {
	if state.Batsmen == nil {
		state.Batsmen = make(map[string]model.BattingLine)
	}
	if _, ok := state.Batsmen[playerID]; !ok {
		state.Batsmen[playerID] = model.BattingLine{
			PlayerID:   playerID,
			StrikeRate: stats.StrikeRate(0, 0),
		}
	}
}

// EnsureBowlingLine creates a zeroed bowling line for playerID if none exists.
func EnsureBowlingLine(state *model.LiveScoreState, playerID string) {
	if state.Bowlers == nil {
		state.Bowlers = make(map[string]model.BowlingLine)
	}
	if _, ok := state.Bowlers[playerID]; !ok {
		state.Bowlers[playerID] = model.BowlingLine{
			PlayerID: playerID,
			Economy:  stats.Economy(0, 0),
		}
	}
}

// RecordBall applies one delivery to the live state and returns the derived
// signals. The state is mutated in place; on error it is untouched.
//
// The ball's StrikerID and BowlerID are taken from the current player slots
// by the caller; the event is the source of truth for undo.
func RecordBall(state *model.LiveScoreState, ball *model.BallEvent, now time.Time) (*Signals, error) {
	if state == nil || state.Status != model.LiveStateLive {
		return nil, ErrNotLive
	}
	inn := &state.CurrentInnings
	if inn.Wickets >= 10 {
		return nil, ErrInningsClosed
	}
	players := &state.CurrentPlayers
	if players.StrikerID == nil || players.NonStrikerID == nil || players.BowlerID == nil {
		return nil, ErrMissingPlayers
	}
	strikerID := *players.StrikerID
	bowlerID := *players.BowlerID
	ball.StrikerID = strikerID
	ball.BowlerID = bowlerID
	if err := ball.Validate(); err != nil {
		return nil, err
	}
	sig := &Signals{IsWicket: ball.IsWicket}

	// Legality and the over count.
	if ball.IsLegal() {
		inn.LegalBallsBowled++
	}
	totalRuns := ball.TotalRuns()
	inn.Runs += totalRuns

	EnsureBattingLine(state, strikerID)
	EnsureBowlingLine(state, bowlerID)
	batLine := state.Batsmen[strikerID]

	if ball.IsWicket {
		inn.Wickets++
		batLine.IsOut = true
		batLine.DismissalType = ball.WicketType
		batLine.BowlerID = model.StrPtr(bowlerID)
	}

	batLine = stats.ApplyBatting(batLine, ball)
	state.Batsmen[strikerID] = batLine
	state.Bowlers[bowlerID] = stats.ApplyBowling(state.Bowlers[bowlerID], ball)

	inn.Overs = stats.OversDisplay(inn.LegalBallsBowled)

	ball.Timestamp = now
	state.BallHistory = append(state.BallHistory, *ball)

	for _, m := range milestones {
		if batLine.Runs == m {
			v := m
			sig.Milestone = &v
			break
		}
	}
	sig.IsDuck = ball.IsWicket && batLine.Runs == 0

	sig.IsOverComplete = inn.LegalBallsBowled > 0 && inn.LegalBallsBowled%6 == 0 && ball.IsLegal()
	if sig.IsOverComplete {
		sig.IsMaidenOver = lastSixScoreless(state.BallHistory)
	}
	if ball.IsWicket {
		sig.IsHatTrick = isHatTrick(state.BallHistory, bowlerID)
	}

	// Strike rotation is a two-stage swap: odd runs rotate strike, and a
	// completed over changes ends. Both swaps run in sequence — an odd-run
	// ball on the last delivery of the over nets to no visible change.
	if totalRuns%2 == 1 {
		players.StrikerID, players.NonStrikerID = players.NonStrikerID, players.StrikerID
	}
	if sig.IsOverComplete {
		players.StrikerID, players.NonStrikerID = players.NonStrikerID, players.StrikerID
	}
	// The post-swap striker slot is cleared on a wicket regardless of which
	// physical batter it holds; the caller prompts for a replacement.
	if ball.IsWicket {
		players.StrikerID = nil
	}
	if sig.IsOverComplete {
		players.BowlerID = nil
	}

	state.UpdatedAt = now
	return sig, nil
}

// lastSixScoreless reports whether the trailing six history entries conceded
// nothing. Wickets do not disqualify a maiden; byes and leg-byes do, because
// they are part of the extras total.
func lastSixScoreless(history []model.BallEvent) bool {
	if len(history) < 6 {
		return false
	}
	for _, e := range history[len(history)-6:] {
		if e.TotalRuns() != 0 {
			return false
		}
	}
	return true
}

// isHatTrick reports whether the three most recent wicket entries in the
// history — not the last three balls overall — all belong to bowlerID.
// Called after the current ball is appended, so it is the latest wicket.
func isHatTrick(history []model.BallEvent, bowlerID string) bool {
	found := 0
	for i := len(history) - 1; i >= 0 && found < 3; i-- {
		if !history[i].IsWicket {
			continue
		}
		if history[i].BowlerID != bowlerID {
			return false
		}
		found++
	}
	return found >= 3
}
