// Package stats applies a single delivery's effect to a batter's or bowler's
// running line, and reverses that effect on undo.
//
// Apply and revert are pure, total functions over value copies. Counters are
// clamped at zero on revert, so an out-of-order revert can never produce a
// negative line. Strike rate and economy are recomputed from the other fields
// after every call rather than incrementally adjusted — recomputation cannot
// drift, and both rates stay exact decimals.
package stats

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
)

var hundred = decimal.NewFromInt(100)

// ApplyBatting credits a delivery to the striker's line.
// Balls faced only increment on legal deliveries; fours/sixes only when the
// bat runs are exactly 4 or 6 (extras never count toward boundary totals).
func ApplyBatting(line model.BattingLine, ball *model.BallEvent) model.BattingLine {
	line.Runs += ball.RunsOffBat
	if ball.IsLegal() {
		line.BallsFaced++
	}
	if ball.RunsOffBat == 4 {
		line.Fours++
	}
	if ball.RunsOffBat == 6 {
		line.Sixes++
	}
	line.StrikeRate = StrikeRate(line.Runs, line.BallsFaced)
	return line
}

// RevertBatting is the exact inverse of ApplyBatting.
func RevertBatting(line model.BattingLine, ball *model.BallEvent) model.BattingLine {
	line.Runs = clamp(line.Runs - ball.RunsOffBat)
	if ball.IsLegal() {
		line.BallsFaced = clamp(line.BallsFaced - 1)
	}
	if ball.RunsOffBat == 4 {
		line.Fours = clamp(line.Fours - 1)
	}
	if ball.RunsOffBat == 6 {
		line.Sixes = clamp(line.Sixes - 1)
	}
	line.StrikeRate = StrikeRate(line.Runs, line.BallsFaced)
	return line
}

// ApplyBowling debits a delivery to the bowler's line. The bowler concedes
// the full value of the ball (bat runs plus extras) and is credited the
// wicket if one fell.
func ApplyBowling(line model.BowlingLine, ball *model.BallEvent) model.BowlingLine {
	line.RunsConceded += ball.TotalRuns()
	if ball.IsLegal() {
		line.LegalBallsBowled++
	}
	if ball.IsWicket {
		line.Wickets++
	}
	switch ball.ExtraType {
	case model.ExtraWide:
		line.Wides++
	case model.ExtraNoBall:
		line.NoBalls++
	}
	line.Economy = Economy(line.RunsConceded, line.LegalBallsBowled)
	return line
}

// RevertBowling is the exact inverse of ApplyBowling.
func RevertBowling(line model.BowlingLine, ball *model.BallEvent) model.BowlingLine {
	line.RunsConceded = clamp(line.RunsConceded - ball.TotalRuns())
	if ball.IsLegal() {
		line.LegalBallsBowled = clamp(line.LegalBallsBowled - 1)
	}
	if ball.IsWicket {
		line.Wickets = clamp(line.Wickets - 1)
	}
	switch ball.ExtraType {
	case model.ExtraWide:
		line.Wides = clamp(line.Wides - 1)
	case model.ExtraNoBall:
		line.NoBalls = clamp(line.NoBalls - 1)
	}
	line.Economy = Economy(line.RunsConceded, line.LegalBallsBowled)
	return line
}

// StrikeRate computes runs/ballsFaced × 100, rounded to 2 places.
// Zero balls faced yields zero, not a division error.
func StrikeRate(runs, ballsFaced int) decimal.Decimal {
	if ballsFaced <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(runs)).
		Div(decimal.NewFromInt(int64(ballsFaced))).
		Mul(hundred).
		Round(2)
}

// OversBowled converts a legal-ball count to cricket's overs notation as a
// number: floor(n/6) + (n mod 6)/10. Six legal balls = 1.0 overs, seven = 1.1.
func OversBowled(legalBalls int) decimal.Decimal {
	if legalBalls <= 0 {
		return decimal.Zero
	}
	whole := decimal.NewFromInt(int64(legalBalls / 6))
	part := decimal.NewFromInt(int64(legalBalls % 6)).Div(decimal.NewFromInt(10))
	return whole.Add(part)
}

// Economy computes runsConceded / oversBowled, rounded to 2 places.
// Zero overs bowled yields zero.
func Economy(runsConceded, legalBalls int) decimal.Decimal {
	overs := OversBowled(legalBalls)
	if overs.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(runsConceded)).Div(overs).Round(2)
}

// OversDisplay renders a legal-ball count as the scoreboard string, e.g.
// 27 legal balls → "4.3".
func OversDisplay(legalBalls int) string {
	if legalBalls < 0 {
		legalBalls = 0
	}
	return fmt.Sprintf("%d.%d", legalBalls/6, legalBalls%6)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
