// Package model defines the core domain types shared across the scoring engine.
// Derived rates (strike rate, economy, overs) use shopspring/decimal — never
// float64 — and are recomputed from their source counters, not adjusted.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Match statuses.
const (
	MatchScheduled    = "scheduled"
	MatchLive         = "live"
	MatchInningsBreak = "innings_break"
	MatchCompleted    = "completed"
)

// Extra types. ExtraNone marks an ordinary delivery.
const (
	ExtraNone   = "none"
	ExtraWide   = "wide"
	ExtraNoBall = "noball"
	ExtraBye    = "bye"
	ExtraLegBye = "legbye"
)

var validExtras = map[string]bool{
	ExtraNone:   true,
	ExtraWide:   true,
	ExtraNoBall: true,
	ExtraBye:    true,
	ExtraLegBye: true,
}

// Dismissal types recorded on a BallEvent or a retirement.
const (
	WicketBowled      = "bowled"
	WicketCaught      = "caught"
	WicketLBW         = "lbw"
	WicketRunOut      = "run_out"
	WicketStumped     = "stumped"
	WicketHitWicket   = "hit_wicket"
	WicketRetiredHurt = "retired_hurt"
	WicketRetiredOut  = "retired_out"
)

var validWickets = map[string]bool{
	WicketBowled:    true,
	WicketCaught:    true,
	WicketLBW:       true,
	WicketRunOut:    true,
	WicketStumped:   true,
	WicketHitWicket: true,
}

var (
	ErrInvalidExtra  = errors.New("model: unknown extra type")
	ErrInvalidWicket = errors.New("model: unknown wicket type")
	ErrNegativeRuns  = errors.New("model: runs must be non-negative")
	ErrNoStriker     = errors.New("model: ball event missing striker")
	ErrNoBowler      = errors.New("model: ball event missing bowler")
)

// Match identifies two competing sides and a format.
type Match struct {
	ID         string    `json:"id" db:"id"`
	HomeTeamID string    `json:"home_team_id" db:"home_team_id"`
	AwayTeamID string    `json:"away_team_id" db:"away_team_id"`
	Format     string    `json:"format" db:"format"` // T20, T10, ODI, CUSTOM-N
	OversLimit int       `json:"overs_limit" db:"overs_limit"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ShotCoordinates locates where a shot was played on the wagon wheel.
type ShotCoordinates struct {
	X decimal.Decimal `json:"x"`
	Y decimal.Decimal `json:"y"`
}

// BallEvent is an immutable record of one delivery. Once appended to the
// ball history it is never modified; undo pops it into the undo log instead.
type BallEvent struct {
	ID         string           `json:"id"`
	RunsOffBat int              `json:"runs_off_bat"`
	ExtraType  string           `json:"extra_type"`
	ExtraRuns  int              `json:"extra_runs"`
	IsWicket   bool             `json:"is_wicket"`
	WicketType *string          `json:"wicket_type,omitempty"`
	StrikerID  string           `json:"striker_id"`
	BowlerID   string           `json:"bowler_id"`
	FielderIDs []string         `json:"fielder_ids,omitempty"`
	Shot       *ShotCoordinates `json:"shot,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// TotalRuns is the team-facing value of the delivery: bat runs plus extras.
func (b *BallEvent) TotalRuns() int {
	return b.RunsOffBat + b.ExtraRuns
}

// IsLegal reports whether the delivery counts toward the 6-ball over.
func (b *BallEvent) IsLegal() bool {
	return b.ExtraType != ExtraWide && b.ExtraType != ExtraNoBall
}

// Validate checks a ball payload at the boundary, before it enters the
// processor. Returns a model sentinel wrapped with the offending value.
func (b *BallEvent) Validate() error {
	if b.RunsOffBat < 0 || b.ExtraRuns < 0 {
		return fmt.Errorf("%w: bat=%d extras=%d", ErrNegativeRuns, b.RunsOffBat, b.ExtraRuns)
	}
	if !validExtras[b.ExtraType] {
		return fmt.Errorf("%w: %q", ErrInvalidExtra, b.ExtraType)
	}
	if b.IsWicket {
		if b.WicketType == nil || !validWickets[*b.WicketType] {
			return fmt.Errorf("%w: %v", ErrInvalidWicket, b.WicketType)
		}
	}
	if b.StrikerID == "" {
		return ErrNoStriker
	}
	if b.BowlerID == "" {
		return ErrNoBowler
	}
	return nil
}

// BattingLine is one batter's running tally in the current innings.
// Created lazily the first time the player is named striker or non-striker.
type BattingLine struct {
	PlayerID      string          `json:"player_id"`
	Runs          int             `json:"runs"`
	BallsFaced    int             `json:"balls_faced"`
	Fours         int             `json:"fours"`
	Sixes         int             `json:"sixes"`
	StrikeRate    decimal.Decimal `json:"strike_rate"`
	IsOut         bool            `json:"is_out"`
	DismissalType *string         `json:"dismissal_type,omitempty"`
	BowlerID      *string         `json:"bowler_id,omitempty"` // dismissing bowler
}

// BowlingLine is one bowler's running tally in the current innings.
// Created lazily on first assignment as bowler.
type BowlingLine struct {
	PlayerID         string          `json:"player_id"`
	LegalBallsBowled int             `json:"legal_balls_bowled"`
	RunsConceded     int             `json:"runs_conceded"`
	Wickets          int             `json:"wickets"`
	Wides            int             `json:"wides"`
	NoBalls          int             `json:"no_balls"`
	Economy          decimal.Decimal `json:"economy"`
}

// CurrentInnings holds the team-level counters for the open innings.
type CurrentInnings struct {
	BattingTeamID    string `json:"batting_team_id"`
	BowlingTeamID    string `json:"bowling_team_id"`
	Runs             int    `json:"runs"`
	Wickets          int    `json:"wickets"`
	LegalBallsBowled int    `json:"legal_balls_bowled"`
	Overs            string `json:"overs"` // display value, e.g. "12.4"
}

// CurrentPlayers names who is at the crease and at the bowling end.
// A nil pointer means "awaiting selection" — a first-class state, not an
// error; scoring is blocked until the slot is filled.
type CurrentPlayers struct {
	StrikerID    *string `json:"striker_id"`
	NonStrikerID *string `json:"non_striker_id"`
	BowlerID     *string `json:"bowler_id"`
	BowlingAngle string  `json:"bowling_angle,omitempty"` // "over"/"around"
}

// UndoEntry is the audit record written when a ball is undone.
// The undo log is never replayed.
type UndoEntry struct {
	ID         string    `json:"id"`
	UndoneBall BallEvent `json:"undone_ball"`
	Reason     string    `json:"reason"`
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
}

// InningsSnapshot freezes a completed innings.
type InningsSnapshot struct {
	BattingTeamID    string                 `json:"batting_team_id"`
	BowlingTeamID    string                 `json:"bowling_team_id"`
	Runs             int                    `json:"runs"`
	Wickets          int                    `json:"wickets"`
	LegalBallsBowled int                    `json:"legal_balls_bowled"`
	Overs            string                 `json:"overs"`
	Batsmen          map[string]BattingLine `json:"batsmen"`
	Bowlers          map[string]BowlingLine `json:"bowlers"`
	BallHistory      []BallEvent            `json:"ball_history"`
}

// Live-state statuses. The break between innings is a first-class state:
// scoring and undo are rejected until the second innings starts.
const (
	LiveStateLive         = "live"
	LiveStateInningsBreak = "innings_break"
	LiveStateCompleted    = "completed"
)

// LiveScoreState is the single shared mutable record for one live match.
// All mutations flow through one store transaction per call, so committed
// updates to one match are totally ordered.
type LiveScoreState struct {
	MatchID        string                 `json:"match_id"`
	InningsNumber  int                    `json:"innings_number"` // 1 or 2
	CurrentInnings CurrentInnings         `json:"current_innings"`
	CurrentPlayers CurrentPlayers         `json:"current_players"`
	Batsmen        map[string]BattingLine `json:"batsmen"`
	Bowlers        map[string]BowlingLine `json:"bowlers"`
	BallHistory    []BallEvent            `json:"ball_history"`
	UndoLog        []UndoEntry            `json:"undo_log"`
	Innings1       *InningsSnapshot       `json:"innings1,omitempty"`
	Innings2       *InningsSnapshot       `json:"innings2,omitempty"`
	Target         *int                   `json:"target,omitempty"`
	Status         string                 `json:"status"`
	WinnerID       *string                `json:"winner_id,omitempty"`
	WinMargin      *string                `json:"win_margin,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// StrPtr returns a pointer to s. Convenience for the nullable slot fields.
func StrPtr(s string) *string { return &s }
