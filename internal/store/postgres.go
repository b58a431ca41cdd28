package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// The live state is one JSONB document per match; WithLiveState serializes
// writers with SELECT ... FOR UPDATE on that row, so all committed mutations
// to one match are totally ordered.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateMatch(ctx context.Context, m *model.Match) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matches (id, home_team_id, away_team_id, format, overs_limit, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.HomeTeamID, m.AwayTeamID, m.Format, m.OversLimit, m.Status, m.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	var m model.Match
	err := s.pool.QueryRow(ctx,
		`SELECT id, home_team_id, away_team_id, format, overs_limit, status, created_at
		 FROM matches WHERE id = $1`, id).
		Scan(&m.ID, &m.HomeTeamID, &m.AwayTeamID, &m.Format, &m.OversLimit, &m.Status, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}
	return &m, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context) ([]model.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, home_team_id, away_team_id, format, overs_limit, status, created_at
		 FROM matches ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.HomeTeamID, &m.AwayTeamID, &m.Format,
			&m.OversLimit, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) UpdateMatchStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE matches SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	return nil
}

func (s *PostgresStore) CreateLiveState(ctx context.Context, state *model.LiveScoreState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO live_states (match_id, state, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (match_id) DO NOTHING`,
		state.MatchID, doc, state.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrStateExists, state.MatchID)
	}
	return nil
}

func (s *PostgresStore) GetLiveState(ctx context.Context, matchID string) (*model.LiveScoreState, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM live_states WHERE match_id = $1`, matchID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("get live state %s: %w", matchID, err)
	}

	var state model.LiveScoreState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("decode live state %s: %w", matchID, err)
	}
	return &state, nil
}

// WithLiveState runs fn against the state document under a row lock.
// A second writer on the same match blocks on the FOR UPDATE until this
// transaction commits or rolls back; fn errors roll back with no write.
func (s *PostgresStore) WithLiveState(ctx context.Context, matchID string, fn func(*model.LiveScoreState) error) (*model.LiveScoreState, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin live-state tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var doc []byte
	err = tx.QueryRow(ctx,
		`SELECT state FROM live_states WHERE match_id = $1 FOR UPDATE`, matchID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock live state %s: %w", matchID, err)
	}

	var state model.LiveScoreState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("decode live state %s: %w", matchID, err)
	}

	if err := fn(&state); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(&state)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE live_states SET state = $2, updated_at = $3 WHERE match_id = $1`,
		matchID, updated, state.UpdatedAt); err != nil {
		return nil, fmt.Errorf("write live state %s: %w", matchID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit live state %s: %w", matchID, err)
	}
	return &state, nil
}

// Schema is the DDL for the two tables the store uses. Applied by the
// operator or a migration tool, not at runtime.
const Schema = `
CREATE TABLE IF NOT EXISTS matches (
    id           TEXT PRIMARY KEY,
    home_team_id TEXT NOT NULL,
    away_team_id TEXT NOT NULL,
    format       TEXT NOT NULL,
    overs_limit  INTEGER NOT NULL,
    status       TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS live_states (
    match_id   TEXT PRIMARY KEY REFERENCES matches(id),
    state      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`
