package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
)

func scheduledMatch() *model.Match {
	return &model.Match{
		ID:         "m1",
		HomeTeamID: "team-a",
		AwayTeamID: "team-b",
		Format:     "T20",
		OversLimit: 20,
		Status:     model.MatchScheduled,
	}
}

// --- Initialize ---

func TestInitialize_TossWinnerBats(t *testing.T) {
	state, err := Initialize(scheduledMatch(), Toss{WinnerTeamID: "team-b", Decision: "bat"},
		[]string{"B1", "B2"}, testNow)
	require.NoError(t, err)

	require.Equal(t, "team-b", state.CurrentInnings.BattingTeamID)
	require.Equal(t, "team-a", state.CurrentInnings.BowlingTeamID)
	require.Equal(t, 1, state.InningsNumber)
	require.Equal(t, "B1", *state.CurrentPlayers.StrikerID)
	require.Equal(t, "B2", *state.CurrentPlayers.NonStrikerID)
	require.Nil(t, state.CurrentPlayers.BowlerID)

	// Openers get zeroed lines immediately.
	require.Contains(t, state.Batsmen, "B1")
	require.Contains(t, state.Batsmen, "B2")
}

func TestInitialize_TossWinnerBowls(t *testing.T) {
	state, err := Initialize(scheduledMatch(), Toss{WinnerTeamID: "team-b", Decision: "bowl"},
		[]string{"A1", "A2"}, testNow)
	require.NoError(t, err)

	require.Equal(t, "team-a", state.CurrentInnings.BattingTeamID)
	require.Equal(t, "team-b", state.CurrentInnings.BowlingTeamID)
}

func TestInitialize_RejectsShortBattingOrder(t *testing.T) {
	_, err := Initialize(scheduledMatch(), Toss{WinnerTeamID: "team-a", Decision: "bat"},
		[]string{"A1"}, testNow)
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestInitialize_RejectsNonScheduledMatch(t *testing.T) {
	match := scheduledMatch()
	match.Status = model.MatchLive

	_, err := Initialize(match, Toss{WinnerTeamID: "team-a", Decision: "bat"},
		[]string{"A1", "A2"}, testNow)
	require.ErrorIs(t, err, ErrWrongInnings)
}

// --- End innings ---

func TestEndInnings_FirstInningsFreezesSnapshot(t *testing.T) {
	state := newLiveState(t)
	record(t, state, runs(4))
	record(t, state, runs(1))
	record(t, state, wicket(model.WicketBowled))

	res, err := EndInnings(state, testNow)
	require.NoError(t, err)

	require.False(t, res.IsMatchComplete)
	require.NotNil(t, res.Target)
	require.Equal(t, 6, *res.Target)

	require.NotNil(t, state.Innings1)
	require.Equal(t, 5, state.Innings1.Runs)
	require.Equal(t, 1, state.Innings1.Wickets)
	require.Len(t, state.Innings1.BallHistory, 3)
	require.Equal(t, model.LiveStateInningsBreak, state.Status)
}

func TestEndInnings_BreakBlocksScoringAndUndo(t *testing.T) {
	state := newLiveState(t)
	record(t, state, runs(4))
	_, err := EndInnings(state, testNow)
	require.NoError(t, err)

	// The frozen innings must not drift during the break.
	_, err = RecordBall(state, runs(4), testNow)
	require.ErrorIs(t, err, ErrNotLive)
	_, err = Undo(state, "late fix", "scorer-1", testNow)
	require.ErrorIs(t, err, ErrNotLive)
	_, err = EndInnings(state, testNow)
	require.ErrorIs(t, err, ErrNotLive)

	require.Equal(t, 4, state.Innings1.Runs)
	require.Equal(t, 4, state.CurrentInnings.Runs)

	require.NoError(t, StartSecondInnings(state, testNow))
	require.Equal(t, model.LiveStateLive, state.Status)
}

func TestStartSecondInnings_SwapsAndResets(t *testing.T) {
	state := newLiveState(t)
	record(t, state, runs(4))
	_, err := EndInnings(state, testNow)
	require.NoError(t, err)

	require.NoError(t, StartSecondInnings(state, testNow))

	require.Equal(t, 2, state.InningsNumber)
	require.Equal(t, state.Innings1.BowlingTeamID, state.CurrentInnings.BattingTeamID)
	require.Equal(t, state.Innings1.BattingTeamID, state.CurrentInnings.BowlingTeamID)
	require.Equal(t, 0, state.CurrentInnings.Runs)
	require.Equal(t, 0, state.CurrentInnings.LegalBallsBowled)
	require.Empty(t, state.BallHistory)
	require.Empty(t, state.Batsmen)
	require.Empty(t, state.Bowlers)
	require.Nil(t, state.CurrentPlayers.StrikerID)
	require.Nil(t, state.CurrentPlayers.BowlerID)
	require.NotNil(t, state.Target)
	require.Equal(t, 5, *state.Target)
}

func TestStartSecondInnings_RequiresClosedFirstInnings(t *testing.T) {
	state := newLiveState(t)

	err := StartSecondInnings(state, testNow)
	require.ErrorIs(t, err, ErrWrongInnings)
}

// playChase closes innings 1 at firstRuns, then plays innings 2 to
// secondRuns with secondWickets down.
func playChase(t *testing.T, firstRuns, secondRuns, secondWickets int) *model.LiveScoreState {
	t.Helper()
	state := newLiveState(t)
	state.CurrentInnings.Runs = firstRuns

	_, err := EndInnings(state, testNow)
	require.NoError(t, err)
	require.NoError(t, StartSecondInnings(state, testNow))

	state.CurrentInnings.Runs = secondRuns
	state.CurrentInnings.Wickets = secondWickets
	return state
}

func TestEndInnings_ChasingSideWinsByWickets(t *testing.T) {
	state := playChase(t, 150, 151, 4)

	res, err := EndInnings(state, testNow)
	require.NoError(t, err)

	require.True(t, res.IsMatchComplete)
	require.Equal(t, state.Innings2.BattingTeamID, *res.WinnerID)
	require.Equal(t, "by 6 wickets", *res.Margin)
	require.Equal(t, model.LiveStateCompleted, state.Status)
}

func TestEndInnings_SingularWicketMargin(t *testing.T) {
	state := playChase(t, 150, 151, 9)

	res, err := EndInnings(state, testNow)
	require.NoError(t, err)
	require.Equal(t, "by 1 wicket", *res.Margin)
}

func TestEndInnings_DefendingSideWinsByRuns(t *testing.T) {
	state := playChase(t, 150, 140, 10)

	res, err := EndInnings(state, testNow)
	require.NoError(t, err)

	require.True(t, res.IsMatchComplete)
	require.Equal(t, state.Innings1.BattingTeamID, *res.WinnerID)
	require.Equal(t, "by 10 runs", *res.Margin)
}

func TestEndInnings_SingularRunMargin(t *testing.T) {
	state := playChase(t, 150, 149, 10)

	res, err := EndInnings(state, testNow)
	require.NoError(t, err)
	require.Equal(t, "by 1 run", *res.Margin)
}

func TestEndInnings_Tie(t *testing.T) {
	state := playChase(t, 140, 140, 10)

	res, err := EndInnings(state, testNow)
	require.NoError(t, err)

	require.True(t, res.IsMatchComplete)
	require.Nil(t, res.WinnerID)
	require.Equal(t, "tie", *res.Margin)
	require.Nil(t, state.WinnerID)
}

func TestEndInnings_RejectsCompletedState(t *testing.T) {
	state := playChase(t, 10, 11, 2)
	_, err := EndInnings(state, testNow)
	require.NoError(t, err)

	_, err = EndInnings(state, testNow)
	require.ErrorIs(t, err, ErrNotLive)
}

// --- End match override ---

func TestEndMatch_ExplicitResult(t *testing.T) {
	state := newLiveState(t)
	record(t, state, runs(4))

	err := EndMatch(state, model.StrPtr("team-a"), "by forfeit", testNow)
	require.NoError(t, err)

	require.Equal(t, model.LiveStateCompleted, state.Status)
	require.Equal(t, "team-a", *state.WinnerID)
	require.Equal(t, "by forfeit", *state.WinMargin)
	require.NotNil(t, state.Innings1)
	require.Equal(t, 4, state.Innings1.Runs)
}

func TestEndMatch_Abandonment(t *testing.T) {
	state := newLiveState(t)

	err := EndMatch(state, nil, "abandoned due to rain", testNow)
	require.NoError(t, err)

	require.Nil(t, state.WinnerID)
	require.Equal(t, "abandoned due to rain", *state.WinMargin)
}

// --- Player management ---

func TestSelectNewBatsman_PrefersStrikerSlot(t *testing.T) {
	state := newLiveState(t)
	record(t, state, wicket(model.WicketBowled))

	require.NoError(t, SelectNewBatsman(state, "C", testNow))
	require.Equal(t, "C", striker(state))
	require.Contains(t, state.Batsmen, "C")
}

func TestSelectNewBatsman_NoVacantSlot(t *testing.T) {
	state := newLiveState(t)

	err := SelectNewBatsman(state, "C", testNow)
	require.ErrorIs(t, err, ErrNoVacantSlot)
}

func TestUpdatePlayers_PartialUpdate(t *testing.T) {
	state := newLiveState(t)

	angle := "around"
	require.NoError(t, UpdatePlayers(state, PlayerUpdate{
		BowlerID:     model.StrPtr("Z"),
		BowlingAngle: &angle,
	}, testNow))

	require.Equal(t, "Z", *state.CurrentPlayers.BowlerID)
	require.Equal(t, "around", state.CurrentPlayers.BowlingAngle)
	require.Contains(t, state.Bowlers, "Z")
	// Untouched fields stay put.
	require.Equal(t, "A", striker(state))
}

func TestRetireBatter_VacatesSeat(t *testing.T) {
	state := newLiveState(t)

	require.NoError(t, RetireBatter(state, "B", model.WicketRetiredHurt, testNow))

	require.Nil(t, state.CurrentPlayers.NonStrikerID)
	line := state.Batsmen["B"]
	require.True(t, line.IsOut)
	require.Equal(t, model.WicketRetiredHurt, *line.DismissalType)
}

func TestRetireBatter_UnknownPlayer(t *testing.T) {
	state := newLiveState(t)

	err := RetireBatter(state, "nobody", model.WicketRetiredOut, testNow)
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRetireBatter_NotAtCrease(t *testing.T) {
	state := newLiveState(t)
	record(t, state, wicket(model.WicketBowled))
	require.NoError(t, SelectNewBatsman(state, "C", testNow))

	// A is out and off the field; retiring them again is invalid.
	err := RetireBatter(state, "A", model.WicketRetiredHurt, testNow)
	require.ErrorIs(t, err, ErrPlayerNotBatting)
}
