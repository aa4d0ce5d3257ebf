package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TopScorer computes best scores from the database.
type TopScorer interface {
	TopScores(ctx context.Context, groupID uuid.UUID, limit int) ([]model.LeaderboardEntry, error)
}

// LeaderboardService reads group leaderboards from Redis sorted sets and
// rebuilds an empty set from PostgreSQL.
type LeaderboardService struct {
	rdb  redis.Cmdable
	repo TopScorer
	size int
	log  zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService. size caps every query.
func NewLeaderboardService(rdb redis.Cmdable, repo TopScorer, size int, log zerolog.Logger) *LeaderboardService {
	if size <= 0 {
		size = 50
	}
	return &LeaderboardService{
		rdb:  rdb,
		repo: repo,
		size: size,
		log:  log.With().Str("component", "leaderboard_service").Logger(),
	}
}

// Top returns up to limit entries, best first.
func (s *LeaderboardService) Top(ctx context.Context, groupID string, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > s.size {
		limit = s.size
	}
	gID, err := uuid.Parse(groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}

	key := config.CacheKey.GroupLeaderboardKey(groupID)
	zs, err := s.rdb.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(zs) > 0 {
		return toEntries(zs), nil
	}

	entries, err := s.repo.TopScores(ctx, gID, s.size)
	if err != nil {
		return nil, fmt.Errorf("rebuild leaderboard: %w", err)
	}
	if len(entries) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{Score: e.Point, Member: strconv.Itoa(e.ProfileID)}
	}
	if err := s.rdb.ZAddGT(ctx, key, members...).Err(); err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID).Msg("Leaderboard rebuild not cached")
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func toEntries(zs []redis.Z) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		out = append(out, model.LeaderboardEntry{Rank: len(out) + 1, ProfileID: id, Point: z.Score})
	}
	return out
}
