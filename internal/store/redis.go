package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iamkameel/scrbrd-beta-2-sub001/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for live-state snapshots, and publishes every committed state on a
// per-match Pub/Sub channel so other instances can fan out to their own
// viewers. Writes go to the primary store inside its transaction; the cache
// and feed are updated only after the commit succeeds.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// StateUpdate is one change-feed message: the committed state of a match.
type StateUpdate struct {
	MatchID string
	State   *model.LiveScoreState
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Match records (passthrough) ---

func (s *CachedStore) CreateMatch(ctx context.Context, m *model.Match) error {
	return s.primary.CreateMatch(ctx, m)
}

func (s *CachedStore) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	return s.primary.GetMatch(ctx, id)
}

func (s *CachedStore) ListMatches(ctx context.Context) ([]model.Match, error) {
	return s.primary.ListMatches(ctx)
}

func (s *CachedStore) UpdateMatchStatus(ctx context.Context, id, status string) error {
	return s.primary.UpdateMatchStatus(ctx, id, status)
}

// --- Live state ---

func (s *CachedStore) CreateLiveState(ctx context.Context, state *model.LiveScoreState) error {
	if err := s.primary.CreateLiveState(ctx, state); err != nil {
		return err
	}
	s.cacheAndPublish(ctx, state)
	return nil
}

// GetLiveState serves viewer reads from Redis when possible. Scorer
// mutations never read through this path — WithLiveState always loads
// under the primary's lock.
func (s *CachedStore) GetLiveState(ctx context.Context, matchID string) (*model.LiveScoreState, error) {
	data, err := s.rdb.Get(ctx, liveStateKey(matchID)).Bytes()
	if err == nil {
		var state model.LiveScoreState
		if json.Unmarshal(data, &state) == nil {
			return &state, nil
		}
	}

	state, err := s.primary.GetLiveState(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.cacheState(ctx, state)
	return state, nil
}

func (s *CachedStore) WithLiveState(ctx context.Context, matchID string, fn func(*model.LiveScoreState) error) (*model.LiveScoreState, error) {
	state, err := s.primary.WithLiveState(ctx, matchID, fn)
	if err != nil {
		return nil, err
	}
	s.cacheAndPublish(ctx, state)
	return state, nil
}

// SubscribeLiveStates subscribes to the change feed for all matches.
// The returned channel closes when ctx is cancelled. Decode failures are
// skipped; the feed is best-effort (the cache and primary remain correct).
func (s *CachedStore) SubscribeLiveStates(ctx context.Context) <-chan StateUpdate {
	sub := s.rdb.PSubscribe(ctx, liveStateChannel("*"))
	out := make(chan StateUpdate, 64)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var state model.LiveScoreState
				if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
					continue
				}
				out <- StateUpdate{MatchID: state.MatchID, State: &state}
			}
		}
	}()
	return out
}

// --- Cache helpers ---

func (s *CachedStore) cacheAndPublish(ctx context.Context, state *model.LiveScoreState) {
	data := s.cacheState(ctx, state)
	if data != nil {
		s.rdb.Publish(ctx, liveStateChannel(state.MatchID), data)
	}
}

func (s *CachedStore) cacheState(ctx context.Context, state *model.LiveScoreState) []byte {
	data, err := json.Marshal(state)
	if err != nil {
		return nil
	}
	s.rdb.Set(ctx, liveStateKey(state.MatchID), data, s.ttl)
	return data
}

func liveStateKey(matchID string) string     { return fmt.Sprintf("live:%s", matchID) }
func liveStateChannel(matchID string) string { return fmt.Sprintf("live-feed:%s", matchID) }
