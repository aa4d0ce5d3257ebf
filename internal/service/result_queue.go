package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/redis/go-redis/v9"
)

// AnswerPayload is one autosaved selection queued for PostgreSQL.
type AnswerPayload struct {
	GroupID   string   `json:"group_id"`
	ProfileID int      `json:"profile_id"`
	QID       string   `json:"q_id"`
	Selected  []string `json:"selected"`
	// Attempts counts failed persists; set by the autosave worker.
	Attempts int `json:"attempts,omitempty"`
}

// Queue pushes work items onto the Redis lists drained by the workers.
type Queue struct {
	rdb redis.Cmdable
}

// NewQueue creates a new Queue.
func NewQueue(rdb redis.Cmdable) *Queue {
	return &Queue{rdb: rdb}
}

// EnqueueResult queues a graded result for the scoring worker.
func (q *Queue) EnqueueResult(ctx context.Context, res model.GroupResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PersistGroupResultsQueue, raw).Err()
}

// Autosave writes the selection to the live answer hash and queues it for
// the autosave worker in one pipeline.
func (q *Queue) Autosave(ctx context.Context, p AnswerPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	selected, err := json.Marshal(p.Selected)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}

	pipe := q.rdb.Pipeline()
	pipe.HSet(ctx, config.CacheKey.GroupAnswersKey(p.GroupID, p.ProfileID), p.QID, selected)
	pipe.RPush(ctx, config.WorkerKey.PersistGroupAnswersQueue, raw)
	_, err = pipe.Exec(ctx)
	return err
}
