package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors
var (
	ErrGroupNotFound = errors.New("exam group not found")
)

// GroupStore is the persistent source of exam groups.
type GroupStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamGroup, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// ExamGroupService serves exam groups from Redis and falls back to
// PostgreSQL, re-caching on a miss.
type ExamGroupService struct {
	repo GroupStore
	rdb  redis.Cmdable
	log  zerolog.Logger
}

// NewExamGroupService creates a new ExamGroupService.
func NewExamGroupService(repo GroupStore, rdb redis.Cmdable, log zerolog.Logger) *ExamGroupService {
	return &ExamGroupService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "exam_group_service").Logger(),
	}
}

// GetFull returns the group including answer keys. Used by grading and the
// live session engine, never sent to students.
func (s *ExamGroupService) GetFull(ctx context.Context, groupID string) (*model.ExamGroup, error) {
	var g model.ExamGroup
	hit, err := s.readCache(ctx, config.CacheKey.GroupFullKey(groupID), &g)
	if err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID).Msg("Group cache read failed, using database")
	}
	if hit {
		return &g, nil
	}

	loaded, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}

	// Self-heal the cache so the next reader takes the fast path.
	if err := s.WarmCache(ctx, loaded); err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID).Msg("Cache self-heal failed")
	}
	return loaded, nil
}

// GetForStudent returns the group with every answer key stripped.
func (s *ExamGroupService) GetForStudent(ctx context.Context, groupID string) (*model.ExamGroup, error) {
	var g model.ExamGroup
	hit, err := s.readCache(ctx, config.CacheKey.GroupPayloadKey(groupID), &g)
	if err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID).Msg("Payload cache read failed")
	}
	if hit {
		return &g, nil
	}

	full, err := s.GetFull(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return full.ForStudent(), nil
}

// Plan returns the tab layout and allotted time of a group.
func (s *ExamGroupService) Plan(ctx context.Context, groupID string) (*engine.Plan, error) {
	g, err := s.GetForStudent(ctx, groupID)
	if err != nil {
		return nil, err
	}
	plan := engine.BuildPlan(g)
	return &plan, nil
}

// RefreshCache reloads a group from PostgreSQL and overwrites both cache entries.
// Called after a group was edited.
func (s *ExamGroupService) RefreshCache(ctx context.Context, groupID string) error {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.WarmCache(ctx, g); err != nil {
		return err
	}
	s.log.Info().Str("group_id", groupID).Msg("Cache refreshed")
	return nil
}

// WarmCache stores the full group and the student payload in one pipeline.
func (s *ExamGroupService) WarmCache(ctx context.Context, g *model.ExamGroup) error {
	full, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal group: %w", err)
	}
	payload, err := json.Marshal(g.ForStudent())
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.GroupFullKey(g.ID), full, 0)
	pipe.Set(ctx, config.CacheKey.GroupPayloadKey(g.ID), payload, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("group_id", g.ID).
		Int("papers", len(g.Papers)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads every group into Redis on application startup.
func (s *ExamGroupService) PrewarmAllCaches(ctx context.Context) error {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	if len(ids) == 0 {
		s.log.Info().Msg("No exam groups to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(ids)).Msg("Prewarming exam groups...")

	warmed := 0
	for _, id := range ids {
		if err := s.RefreshCache(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("group_id", id).Msg("Failed to warm group, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(ids)).
		Msg("Prewarming complete")
	return nil
}

func (s *ExamGroupService) load(ctx context.Context, groupID string) (*model.ExamGroup, error) {
	id, err := uuid.Parse(groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func (s *ExamGroupService) readCache(ctx context.Context, key string, dst *model.ExamGroup) (bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}
