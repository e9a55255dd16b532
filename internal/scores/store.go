package scores

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store keeps the best recorded score per game type. Scores arrive from
// game-over messages; the winner's connection id is kept only as a label.
type Store interface {
	Record(ctx context.Context, gameType, winnerID string, score float64) error
	Best(ctx context.Context, gameType string) (Entry, bool, error)
}

// Entry is one leaderboard slot.
type Entry struct {
	WinnerID string  `json:"winnerId"`
	Score    float64 `json:"score"`
}

type redisStore struct {
	rdb       *redis.Client
	keyPrefix string
}

// NewRedisStore returns a Store backed by one Redis sorted set per game type.
func NewRedisStore(rdb *redis.Client, keyPrefix string) Store {
	return &redisStore{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *redisStore) key(gameType string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, gameType)
}

// Record adds the result to the game type's sorted set. ZAdd GT keeps a
// member's best score only, so replays never lower an existing entry.
func (s *redisStore) Record(ctx context.Context, gameType, winnerID string, score float64) error {
	_, err := s.rdb.ZAddGT(ctx, s.key(gameType), redis.Z{Score: score, Member: winnerID}).Result()
	if err != nil {
		slog.Error("Failed to record score", "gameType", gameType, "winnerID", winnerID, "error", err)
		return err
	}
	return nil
}

// Best returns the highest recorded score for the game type.
func (s *redisStore) Best(ctx context.Context, gameType string) (Entry, bool, error) {
	res, err := s.rdb.ZRevRangeWithScores(ctx, s.key(gameType), 0, 0).Result()
	if err != nil {
		return Entry{}, false, err
	}
	if len(res) == 0 {
		return Entry{}, false, nil
	}
	member, _ := res[0].Member.(string)
	return Entry{WinnerID: member, Score: res[0].Score}, true, nil
}

type memoryStore struct {
	mu   sync.RWMutex
	best map[string]Entry
}

// NewMemoryStore returns an in-process Store. The server falls back to it
// when Redis is unreachable, so the arcade still runs without infrastructure.
func NewMemoryStore() Store {
	return &memoryStore{best: make(map[string]Entry)}
}

func (s *memoryStore) Record(_ context.Context, gameType, winnerID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.best[gameType]; !ok || score > cur.Score {
		s.best[gameType] = Entry{WinnerID: winnerID, Score: score}
	}
	return nil
}

func (s *memoryStore) Best(_ context.Context, gameType string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.best[gameType]
	return e, ok, nil
}
