// Package scoring provides the HTTP handlers for live ball-by-ball scoring:
// match setup, ball recording, undo, player management, and innings
// lifecycle. Every mutation runs as one atomic read-modify-write against the
// match's live-state record and is fanned out to subscribers afterwards.
package scoring

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/engine"
	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/format"
	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/metrics"
	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/store"
)

// Service handles scoring operations. All mutations are serialized per
// match by the store's live-state transaction, so concurrent scorers
// cannot interleave partial updates.
type Service struct {
	store store.Store
	wsHub *WSHub // optional WebSocket hub for real-time broadcasts
	now   func() time.Time
}

// NewService creates a new scoring service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, hub *WSHub) *Service {
	return &Service{
		store: st,
		wsHub: hub,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Routes mounts every scoring endpoint on r.
func (s *Service) Routes(r chi.Router) {
	r.Get("/matches", s.ListMatches)
	r.Post("/matches", s.CreateMatch)
	r.Get("/matches/{matchID}", s.GetMatch)

	r.Route("/matches/{matchID}/live", func(r chi.Router) {
		r.Get("/", s.GetLiveState)
		r.Post("/", s.InitializeLiveMatch)
		r.Post("/balls", s.RecordBall)
		r.Post("/undo", s.UndoLastBall)
		r.Post("/batsman", s.SelectNewBatsman)
		r.Post("/bowler", s.SelectNewBowler)
		r.Post("/players", s.UpdateLivePlayers)
		r.Post("/retire", s.RetireBatter)
		r.Post("/end-innings", s.EndInnings)
		r.Post("/second-innings", s.StartSecondInnings)
		r.Post("/end-match", s.EndMatch)
	})
}

// --- Request/Response types ---

// CreateMatchRequest is the JSON body for match creation.
type CreateMatchRequest struct {
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
	Format     string `json:"format"` // T10, T20, ODI, CUSTOM-{overs}
}

// InitializeRequest is the JSON body for starting a live match.
type InitializeRequest struct {
	Toss         engine.Toss `json:"toss"`
	BattingOrder []string    `json:"batting_order"`
}

// BallRequest is the JSON body for recording one delivery.
type BallRequest struct {
	RunsOffBat int                    `json:"runs_off_bat"`
	ExtraType  string                 `json:"extra_type"`
	ExtraRuns  int                    `json:"extra_runs"`
	IsWicket   bool                   `json:"is_wicket"`
	WicketType *string                `json:"wicket_type,omitempty"`
	FielderIDs []string               `json:"fielder_ids,omitempty"`
	Shot       *model.ShotCoordinates `json:"shot,omitempty"`
}

// BallResponse returns the derived signals plus the committed state.
type BallResponse struct {
	Signals *engine.Signals       `json:"signals"`
	State   *model.LiveScoreState `json:"state"`
}

// UndoRequest is the JSON body for undoing the last delivery.
type UndoRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

// PlayerRequest names one player for selection or retirement.
type PlayerRequest struct {
	PlayerID       string `json:"player_id"`
	RetirementType string `json:"retirement_type,omitempty"`
}

// EndMatchRequest carries an explicit override result.
type EndMatchRequest struct {
	WinnerID *string `json:"winner_id,omitempty"`
	Margin   string  `json:"margin"`
}

// --- Match setup ---

// CreateMatch handles POST /api/v1/matches
func (s *Service) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.HomeTeamID == "" || req.AwayTeamID == "" || req.HomeTeamID == req.AwayTeamID {
		writeError(w, "two distinct team ids are required", http.StatusBadRequest)
		return
	}

	f, err := format.Parse(req.Format)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	match := &model.Match{
		ID:         uuid.New().String(),
		HomeTeamID: req.HomeTeamID,
		AwayTeamID: req.AwayTeamID,
		Format:     f.Code,
		OversLimit: f.OversLimit,
		Status:     model.MatchScheduled,
		CreatedAt:  s.now(),
	}

	if err := s.store.CreateMatch(r.Context(), match); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("match created",
		"id", match.ID,
		"home", match.HomeTeamID,
		"away", match.AwayTeamID,
		"format", match.Format,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(match)
}

// GetMatch handles GET /api/v1/matches/{matchID}
func (s *Service) GetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := s.store.GetMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, match)
}

// ListMatches handles GET /api/v1/matches
func (s *Service) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.ListMatches(r.Context())
	if err != nil {
		writeError(w, "failed to list matches", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	writeJSON(w, matches)
}

// GetLiveState handles GET /api/v1/matches/{matchID}/live
func (s *Service) GetLiveState(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.GetLiveState(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, state)
}

// --- Live scoring ---

// InitializeLiveMatch handles POST /api/v1/matches/{matchID}/live
// Pre-match → live(1): the toss decides who bats, the first two of the
// batting order are seated, and the bowler is left awaiting selection.
func (s *Service) InitializeLiveMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var req InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	state, err := engine.Initialize(match, req.Toss, req.BattingOrder, s.now())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.store.CreateLiveState(ctx, state); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.store.UpdateMatchStatus(ctx, matchID, model.MatchLive); err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.LiveMatches.Inc()

	slog.Info("live match initialized",
		"match", matchID,
		"batting", state.CurrentInnings.BattingTeamID,
		"bowling", state.CurrentInnings.BowlingTeamID,
	)
	s.broadcast("match_initialized", state, nil)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(state)
}

// RecordBall handles POST /api/v1/matches/{matchID}/live/balls
// Applies one delivery atomically and returns the derived signals.
func (s *Service) RecordBall(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var req BallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	ball := model.BallEvent{
		ID:         uuid.New().String(),
		RunsOffBat: req.RunsOffBat,
		ExtraType:  req.ExtraType,
		ExtraRuns:  req.ExtraRuns,
		IsWicket:   req.IsWicket,
		WicketType: req.WicketType,
		FielderIDs: req.FielderIDs,
		Shot:       req.Shot,
	}

	var sig *engine.Signals
	state, err := s.store.WithLiveState(ctx, matchID, func(st *model.LiveScoreState) error {
		// The overs cap is a format rule, enforced here rather than in the
		// processor: the 6th-over wide in a T20 must still be scorable.
		if format.InningsClosedByOvers(st.CurrentInnings.LegalBallsBowled, match.OversLimit) {
			return engine.ErrInningsClosed
		}
		var ferr error
		sig, ferr = engine.RecordBall(st, &ball, s.now())
		return ferr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	metrics.BallsRecorded.WithLabelValues(ball.ExtraType).Inc()
	if sig.IsWicket && ball.WicketType != nil {
		metrics.WicketsTotal.WithLabelValues(*ball.WicketType).Inc()
	}
	if sig.Milestone != nil {
		metrics.MilestonesTotal.WithLabelValues(strconv.Itoa(*sig.Milestone)).Inc()
	}

	slog.Info("ball recorded",
		"match", matchID,
		"striker", ball.StrikerID,
		"bowler", ball.BowlerID,
		"runs_off_bat", ball.RunsOffBat,
		"extra", ball.ExtraType,
		"wicket", ball.IsWicket,
		"score", state.CurrentInnings.Runs,
		"wickets", state.CurrentInnings.Wickets,
		"overs", state.CurrentInnings.Overs,
	)
	s.broadcast("ball_recorded", state, sig)

	writeJSON(w, BallResponse{Signals: sig, State: state})
}

// UndoLastBall handles POST /api/v1/matches/{matchID}/live/undo
func (s *Service) UndoLastBall(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var req UndoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		writeError(w, "reason is required", http.StatusBadRequest)
		return
	}

	var res *engine.UndoResult
	state, err := s.store.WithLiveState(r.Context(), matchID, func(st *model.LiveScoreState) error {
		var ferr error
		res, ferr = engine.Undo(st, req.Reason, req.Actor, s.now())
		return ferr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	metrics.UndosTotal.Inc()
	slog.Info("ball undone",
		"match", matchID,
		"reason", req.Reason,
		"actor", req.Actor,
		"undone_runs", res.UndoneRuns,
	)
	s.broadcast("ball_undone", state, nil)

	writeJSON(w, map[string]any{"undone_runs": res.UndoneRuns, "state": state})
}

// --- Player management ---

// SelectNewBatsman handles POST /api/v1/matches/{matchID}/live/batsman
func (s *Service) SelectNewBatsman(w http.ResponseWriter, r *http.Request) {
	s.playerMutation(w, r, "batsman_selected", func(st *model.LiveScoreState, req PlayerRequest) error {
		return engine.SelectNewBatsman(st, req.PlayerID, s.now())
	})
}

// SelectNewBowler handles POST /api/v1/matches/{matchID}/live/bowler
func (s *Service) SelectNewBowler(w http.ResponseWriter, r *http.Request) {
	s.playerMutation(w, r, "bowler_selected", func(st *model.LiveScoreState, req PlayerRequest) error {
		return engine.SelectNewBowler(st, req.PlayerID, s.now())
	})
}

// RetireBatter handles POST /api/v1/matches/{matchID}/live/retire
func (s *Service) RetireBatter(w http.ResponseWriter, r *http.Request) {
	s.playerMutation(w, r, "batter_retired", func(st *model.LiveScoreState, req PlayerRequest) error {
		return engine.RetireBatter(st, req.PlayerID, req.RetirementType, s.now())
	})
}

func (s *Service) playerMutation(w http.ResponseWriter, r *http.Request, event string, fn func(*model.LiveScoreState, PlayerRequest) error) {
	matchID := chi.URLParam(r, "matchID")

	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" {
		writeError(w, "player_id is required", http.StatusBadRequest)
		return
	}

	state, err := s.store.WithLiveState(r.Context(), matchID, func(st *model.LiveScoreState) error {
		return fn(st, req)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info(event, "match", matchID, "player", req.PlayerID)
	s.broadcast(event, state, nil)
	writeJSON(w, state)
}

// UpdateLivePlayers handles POST /api/v1/matches/{matchID}/live/players
// Partial update: absent fields are untouched.
func (s *Service) UpdateLivePlayers(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var req engine.PlayerUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	state, err := s.store.WithLiveState(r.Context(), matchID, func(st *model.LiveScoreState) error {
		return engine.UpdatePlayers(st, req, s.now())
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("players updated", "match", matchID)
	s.broadcast("players_updated", state, nil)
	writeJSON(w, state)
}

// --- Innings lifecycle ---

// EndInnings handles POST /api/v1/matches/{matchID}/live/end-innings
func (s *Service) EndInnings(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	ctx := r.Context()

	var res *engine.InningsResult
	state, err := s.store.WithLiveState(ctx, matchID, func(st *model.LiveScoreState) error {
		var ferr error
		res, ferr = engine.EndInnings(st, s.now())
		return ferr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	nextStatus := model.MatchInningsBreak
	if res.IsMatchComplete {
		nextStatus = model.MatchCompleted
		metrics.LiveMatches.Dec()
	}
	if err := s.store.UpdateMatchStatus(ctx, matchID, nextStatus); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("innings ended",
		"match", matchID,
		"innings", state.InningsNumber,
		"complete", res.IsMatchComplete,
	)
	s.broadcast("innings_ended", state, nil)

	writeJSON(w, map[string]any{"result": res, "state": state})
}

// StartSecondInnings handles POST /api/v1/matches/{matchID}/live/second-innings
func (s *Service) StartSecondInnings(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	ctx := r.Context()

	state, err := s.store.WithLiveState(ctx, matchID, func(st *model.LiveScoreState) error {
		return engine.StartSecondInnings(st, s.now())
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.store.UpdateMatchStatus(ctx, matchID, model.MatchLive); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("second innings started",
		"match", matchID,
		"target", state.Target,
		"batting", state.CurrentInnings.BattingTeamID,
	)
	s.broadcast("second_innings_started", state, nil)
	writeJSON(w, state)
}

// EndMatch handles POST /api/v1/matches/{matchID}/live/end-match
// Explicit override for declared results and abandonments.
func (s *Service) EndMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var req EndMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Margin == "" {
		writeError(w, "margin is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	state, err := s.store.WithLiveState(ctx, matchID, func(st *model.LiveScoreState) error {
		return engine.EndMatch(st, req.WinnerID, req.Margin, s.now())
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.store.UpdateMatchStatus(ctx, matchID, model.MatchCompleted); err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.LiveMatches.Dec()

	slog.Info("match ended", "match", matchID, "margin", req.Margin)
	s.broadcast("match_ended", state, nil)
	writeJSON(w, state)
}

// --- Helpers ---

func (s *Service) broadcast(event string, state *model.LiveScoreState, sig *engine.Signals) {
	if s.wsHub == nil {
		return
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return
	}
	msg := WSMessage{Type: event, MatchID: state.MatchID, State: stateJSON}
	if sig != nil {
		if sigJSON, err := json.Marshal(sig); err == nil {
			msg.Signals = sigJSON
		}
	}
	s.wsHub.Broadcast(msg)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeEngineError maps the engine/store error taxonomy to HTTP statuses.
// Every failure is structured; nothing is swallowed.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrMatchNotFound),
		errors.Is(err, engine.ErrPlayerNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrNegativeRuns),
		errors.Is(err, model.ErrInvalidExtra),
		errors.Is(err, model.ErrInvalidWicket),
		errors.Is(err, model.ErrNoStriker),
		errors.Is(err, model.ErrNoBowler):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrStateNotFound),
		errors.Is(err, engine.ErrNotLive),
		errors.Is(err, engine.ErrMissingPlayers),
		errors.Is(err, engine.ErrInningsClosed),
		errors.Is(err, engine.ErrNoBallsToUndo),
		errors.Is(err, engine.ErrPlayerNotBatting),
		errors.Is(err, engine.ErrNoVacantSlot),
		errors.Is(err, engine.ErrWrongInnings),
		errors.Is(err, store.ErrStateExists):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
