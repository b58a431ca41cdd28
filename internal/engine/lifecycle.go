package engine

import (
	"fmt"
	"time"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/stats"
)

// Toss captures who won the flip and what they chose.
type Toss struct {
	WinnerTeamID string `json:"winner_team_id"`
	Decision     string `json:"decision"` // "bat" or "bowl"
}

// InningsResult reports the outcome of an endInnings transition.
type InningsResult struct {
	IsMatchComplete bool    `json:"is_match_complete"`
	WinnerID        *string `json:"winner_id,omitempty"`
	Margin          *string `json:"margin,omitempty"`
	Target          *int    `json:"target,omitempty"`
}

// Initialize builds the first-innings live state for a match: pre-match →
// live(1). The toss decides who bats; the first two names of the
// first-batting side's order are seated with zeroed lines. The bowler slot
// is left awaiting selection.
func Initialize(match *model.Match, toss Toss, battingOrder []string, now time.Time) (*model.LiveScoreState, error) {
	if match.Status != model.MatchScheduled {
		return nil, fmt.Errorf("%w: match status %s", ErrWrongInnings, match.Status)
	}
	if len(battingOrder) < 2 {
		return nil, fmt.Errorf("%w: batting order needs at least two players", ErrPlayerNotFound)
	}

	other := match.AwayTeamID
	if toss.WinnerTeamID == match.AwayTeamID {
		other = match.HomeTeamID
	}
	battingTeam, bowlingTeam := toss.WinnerTeamID, other
	if toss.Decision == "bowl" {
		battingTeam, bowlingTeam = other, toss.WinnerTeamID
	}

	state := &model.LiveScoreState{
		MatchID:       match.ID,
		InningsNumber: 1,
		CurrentInnings: model.CurrentInnings{
			BattingTeamID: battingTeam,
			BowlingTeamID: bowlingTeam,
			Overs:         stats.OversDisplay(0),
		},
		CurrentPlayers: model.CurrentPlayers{
			StrikerID:    model.StrPtr(battingOrder[0]),
			NonStrikerID: model.StrPtr(battingOrder[1]),
		},
		Batsmen:   make(map[string]model.BattingLine),
		Bowlers:   make(map[string]model.BowlingLine),
		Status:    model.LiveStateLive,
		UpdatedAt: now,
	}
	EnsureBattingLine(state, battingOrder[0])
	EnsureBattingLine(state, battingOrder[1])
	return state, nil
}

// EndInnings closes the open innings. After innings 1 the full innings is
// frozen into the state and the match enters the break; after innings 2 the
// match completes and the result is derived from the two totals.
func EndInnings(state *model.LiveScoreState, now time.Time) (*InningsResult, error) {
	if state == nil || state.Status != model.LiveStateLive {
		return nil, ErrNotLive
	}

	snap := snapshotInnings(state)

	if state.InningsNumber == 1 {
		state.Innings1 = &snap
		target := snap.Runs + 1
		state.Status = model.LiveStateInningsBreak
		state.UpdatedAt = now
		return &InningsResult{Target: &target}, nil
	}

	state.Innings2 = &snap
	winnerID, margin := deriveResult(state.Innings1, &snap)
	state.WinnerID = winnerID
	state.WinMargin = model.StrPtr(margin)
	state.Status = model.LiveStateCompleted
	state.UpdatedAt = now

	return &InningsResult{
		IsMatchComplete: true,
		WinnerID:        winnerID,
		Margin:          state.WinMargin,
	}, nil
}

// StartSecondInnings flips the sides and resets every per-innings counter:
// innings_break → live(2). The crease and bowler slots all start awaiting
// selection; the chase target is the first-innings total plus one.
func StartSecondInnings(state *model.LiveScoreState, now time.Time) error {
	if state == nil {
		return ErrNotLive
	}
	if state.Status != model.LiveStateInningsBreak || state.Innings1 == nil {
		return fmt.Errorf("%w: second innings requires a closed first innings", ErrWrongInnings)
	}

	target := state.Innings1.Runs + 1
	state.InningsNumber = 2
	state.CurrentInnings = model.CurrentInnings{
		BattingTeamID: state.Innings1.BowlingTeamID,
		BowlingTeamID: state.Innings1.BattingTeamID,
		Overs:         stats.OversDisplay(0),
	}
	state.CurrentPlayers = model.CurrentPlayers{}
	state.Batsmen = make(map[string]model.BattingLine)
	state.Bowlers = make(map[string]model.BowlingLine)
	state.BallHistory = nil
	state.UndoLog = nil
	state.Target = &target
	state.Status = model.LiveStateLive
	state.UpdatedAt = now
	return nil
}

// EndMatch force-completes the match with a caller-supplied result,
// bypassing the derived-result rule. Used for declared results and
// abandonments.
func EndMatch(state *model.LiveScoreState, winnerID *string, margin string, now time.Time) error {
	if state == nil || state.Status != model.LiveStateLive {
		return ErrNotLive
	}
	snap := snapshotInnings(state)
	if state.InningsNumber == 1 {
		state.Innings1 = &snap
	} else {
		state.Innings2 = &snap
	}
	state.WinnerID = winnerID
	state.WinMargin = model.StrPtr(margin)
	state.Status = model.LiveStateCompleted
	state.UpdatedAt = now
	return nil
}

// deriveResult compares the two innings totals. The chasing side wins by
// wickets remaining, the defending side by runs, equal totals tie.
func deriveResult(first, second *model.InningsSnapshot) (*string, string) {
	switch {
	case second.Runs > first.Runs:
		remaining := 10 - second.Wickets
		return model.StrPtr(second.BattingTeamID), fmt.Sprintf("by %d %s", remaining, plural(remaining, "wicket"))
	case first.Runs > second.Runs:
		diff := first.Runs - second.Runs
		return model.StrPtr(first.BattingTeamID), fmt.Sprintf("by %d %s", diff, plural(diff, "run"))
	default:
		return nil, "tie"
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func snapshotInnings(state *model.LiveScoreState) model.InningsSnapshot {
	snap := model.InningsSnapshot{
		BattingTeamID:    state.CurrentInnings.BattingTeamID,
		BowlingTeamID:    state.CurrentInnings.BowlingTeamID,
		Runs:             state.CurrentInnings.Runs,
		Wickets:          state.CurrentInnings.Wickets,
		LegalBallsBowled: state.CurrentInnings.LegalBallsBowled,
		Overs:            state.CurrentInnings.Overs,
		Batsmen:          make(map[string]model.BattingLine, len(state.Batsmen)),
		Bowlers:          make(map[string]model.BowlingLine, len(state.Bowlers)),
		BallHistory:      append([]model.BallEvent(nil), state.BallHistory...),
	}
	for id, line := range state.Batsmen {
		snap.Batsmen[id] = line
	}
	for id, line := range state.Bowlers {
		snap.Bowlers[id] = line
	}
	return snap
}
