package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/qugame/twentyq-backend/internal/config"
	"github.com/qugame/twentyq-backend/internal/model"
	"github.com/qugame/twentyq-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// statsCacheTTL bounds staleness of cached aggregates. Finished games also
// invalidate eagerly, so this is a backstop.
const statsCacheTTL = 5 * time.Minute

// StatsService serves game statistics and per-turn review data for the
// admin surface. User and server aggregates are cached in Redis since they
// aggregate over the whole sessions table.
type StatsService struct {
	db  *repository.StatsRepository
	rdb *redis.Client
	log zerolog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *repository.StatsRepository, rdb *redis.Client, log zerolog.Logger) *StatsService {
	return &StatsService{db: db, rdb: rdb, log: log}
}

// UserStats returns win/loss aggregates for one player, cache-aside.
func (s *StatsService) UserStats(ctx context.Context, username string) (*model.UserStats, error) {
	key := config.CacheKey.UserStatsKey(username)
	if cached, ok := getCached[model.UserStats](ctx, s, key); ok {
		return cached, nil
	}

	stats, err := s.db.UserStats(ctx, username)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, key, stats)
	return stats, nil
}

// ServerStats returns aggregates across all players, cache-aside.
func (s *StatsService) ServerStats(ctx context.Context) (*model.ServerStats, error) {
	key := config.CacheKey.ServerStatsKey()
	if cached, ok := getCached[model.ServerStats](ctx, s, key); ok {
		return cached, nil
	}

	stats, err := s.db.ServerStats(ctx)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, key, stats)
	return stats, nil
}

// ReviewGame returns the per-turn review rows for one session.
func (s *StatsService) ReviewGame(ctx context.Context, sessionID uuid.UUID) ([]model.TurnReview, error) {
	return s.db.ReviewGame(ctx, sessionID)
}

// ReviewGames returns review rows for every session, newest first.
func (s *StatsService) ReviewGames(ctx context.Context) ([]model.TurnReview, error) {
	return s.db.ReviewGames(ctx)
}

// Invalidate drops the cached stats touched by one player's finished game.
// Cache errors are logged, never surfaced: the database stays authoritative.
func (s *StatsService) Invalidate(ctx context.Context, username string) {
	keys := []string{
		config.CacheKey.UserStatsKey(username),
		config.CacheKey.ServerStatsKey(),
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("invalidate stats cache")
	}
}

// getCached reads and decodes a cached value. A miss, a decode failure, or
// a Redis error all report a miss; corrupt entries are self-healed by the
// next setCached.
func getCached[T any](ctx context.Context, s *StatsService, key string) (*T, bool) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn().Err(err).Str("key", key).Msg("stats cache read")
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("stats cache decode")
		return nil, false
	}
	return &v, true
}

func (s *StatsService) setCached(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("stats cache encode")
		return
	}
	if err := s.rdb.Set(ctx, key, raw, statsCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("stats cache write")
	}
}
