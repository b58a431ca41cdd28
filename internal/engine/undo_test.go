package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
)

func marshalWithoutUndoLog(t *testing.T, state *model.LiveScoreState) string {
	t.Helper()
	cp := *state
	cp.UndoLog = nil
	data, err := json.Marshal(&cp)
	require.NoError(t, err)
	return string(data)
}

// roundTrip records one ball and undoes it, requiring the state to come
// back exactly — counters, rates, history, and seating. The undo log is the
// one part that legitimately grows.
func roundTrip(t *testing.T, state *model.LiveScoreState, ball *model.BallEvent) {
	t.Helper()
	before := marshalWithoutUndoLog(t, state)
	undoLogLen := len(state.UndoLog)

	_, err := RecordBall(state, ball, testNow)
	require.NoError(t, err)

	res, err := Undo(state, "scorer mistake", "scorer-1", testNow)
	require.NoError(t, err)
	require.Equal(t, ball.TotalRuns(), res.UndoneRuns)

	require.JSONEq(t, before, marshalWithoutUndoLog(t, state))
	require.Len(t, state.UndoLog, undoLogLen+1)
	require.Equal(t, "scorer mistake", state.UndoLog[undoLogLen].Reason)
}

func TestUndo_RoundTripPlainDeliveries(t *testing.T) {
	state := newLiveState(t)

	roundTrip(t, state, dot())
	roundTrip(t, state, runs(4))
	roundTrip(t, state, runs(1))
	roundTrip(t, state, extra(model.ExtraWide, 1))
	roundTrip(t, state, extra(model.ExtraNoBall, 2))
	roundTrip(t, state, extra(model.ExtraLegBye, 1))
}

func TestUndo_RoundTripMidInnings(t *testing.T) {
	state := newLiveState(t)
	record(t, state, runs(4))
	record(t, state, runs(1))
	record(t, state, extra(model.ExtraWide, 1))

	roundTrip(t, state, runs(3))
	roundTrip(t, state, wicket(model.WicketBowled))
}

func TestUndo_RoundTripWicket(t *testing.T) {
	state := newLiveState(t)
	record(t, state, runs(2))

	roundTrip(t, state, wicket(model.WicketCaught))
}

func TestUndo_RoundTripRunOutWithOddRun(t *testing.T) {
	state := newLiveState(t)

	// Odd run plus a wicket: the forward pass swaps, then clears the slot
	// now holding the other batter. The inverse must re-derive who was
	// vacated, not just refill the dismissed striker.
	b := &model.BallEvent{
		RunsOffBat: 1,
		ExtraType:  model.ExtraNone,
		IsWicket:   true,
		WicketType: model.StrPtr(model.WicketRunOut),
	}
	roundTrip(t, state, b)
}

func TestUndo_RoundTripOverBoundary(t *testing.T) {
	state := newLiveState(t)
	for i := 0; i < 5; i++ {
		record(t, state, dot())
	}

	// 6th legal ball completes the over: swap plus bowler clear.
	roundTrip(t, state, dot())

	// Odd run on the 6th ball: both swaps compose.
	roundTrip(t, state, runs(1))

	// Wicket on the 6th ball: over swap plus slot clear.
	roundTrip(t, state, wicket(model.WicketStumped))
}

func TestUndo_RestoresWicketState(t *testing.T) {
	state := newLiveState(t)
	record(t, state, wicket(model.WicketBowled))
	require.True(t, state.Batsmen["A"].IsOut)
	require.Nil(t, state.CurrentPlayers.StrikerID)

	_, err := Undo(state, "wrong batter", "scorer-1", testNow)
	require.NoError(t, err)

	line := state.Batsmen["A"]
	require.False(t, line.IsOut)
	require.Nil(t, line.DismissalType)
	require.Nil(t, line.BowlerID)
	require.Equal(t, 0, state.CurrentInnings.Wickets)
	require.Equal(t, "A", striker(state))
	require.Equal(t, "B", nonStriker(state))
}

func TestUndo_SequentialWalkBack(t *testing.T) {
	state := newLiveState(t)
	record(t, state, runs(4))
	record(t, state, runs(1))

	_, err := Undo(state, "fix", "scorer-1", testNow)
	require.NoError(t, err)
	require.Len(t, state.BallHistory, 1)
	require.Equal(t, 4, state.CurrentInnings.Runs)

	_, err = Undo(state, "fix", "scorer-1", testNow)
	require.NoError(t, err)
	require.Empty(t, state.BallHistory)
	require.Equal(t, 0, state.CurrentInnings.Runs)

	_, err = Undo(state, "fix", "scorer-1", testNow)
	require.ErrorIs(t, err, ErrNoBallsToUndo)
	require.Len(t, state.UndoLog, 2)
}

func TestUndo_EmptyHistory(t *testing.T) {
	state := newLiveState(t)

	_, err := Undo(state, "nothing to fix", "scorer-1", testNow)
	require.ErrorIs(t, err, ErrNoBallsToUndo)
}

func TestUndo_AuditEntryRecordsBall(t *testing.T) {
	state := newLiveState(t)
	record(t, state, runs(6))

	_, err := Undo(state, "wrong button", "scorer-2", testNow)
	require.NoError(t, err)

	require.Len(t, state.UndoLog, 1)
	entry := state.UndoLog[0]
	require.Equal(t, 6, entry.UndoneBall.RunsOffBat)
	require.Equal(t, "wrong button", entry.Reason)
	require.Equal(t, "scorer-2", entry.Actor)
	require.Equal(t, testNow, entry.Timestamp)
}
