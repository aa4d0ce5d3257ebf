package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/metrics"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// MaxAutosaveAttempts bounds how often one answer payload is retried.
const MaxAutosaveAttempts = 10

// AnswerWriter upserts one autosaved selection.
type AnswerWriter interface {
	UpsertAnswer(ctx context.Context, groupID uuid.UUID, profileID int, questionID string, selected []string) error
}

// AutosaveWorker consumes persist_group_answers_queue and UPSERTs answers to PostgreSQL.
type AutosaveWorker struct {
	repo       AnswerWriter
	rdb        redis.Cmdable
	queue      string
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(repo AnswerWriter, rdb redis.Cmdable, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		repo:       repo,
		rdb:        rdb,
		queue:      config.WorkerKey.PersistGroupAnswersQueue,
		retryDelay: 5 * time.Second,
		log:        log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Msg("Persist error, retrying later")
		w.requeue(ctx, result[1])
		select {
		case <-time.After(w.retryDelay):
		case <-ctx.Done():
		}
	}
}

// handle persists one raw payload. Malformed payloads are dropped.
func (w *AutosaveWorker) handle(ctx context.Context, raw string) error {
	var p service.AnswerPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping payload")
		metrics.QueueFlushes.WithLabelValues(w.queue, "dropped").Inc()
		return nil
	}
	groupID, err := uuid.Parse(p.GroupID)
	if err != nil {
		w.log.Error().Err(err).Str("group_id", p.GroupID).Msg("Invalid group id, dropping payload")
		metrics.QueueFlushes.WithLabelValues(w.queue, "dropped").Inc()
		return nil
	}

	if err := w.repo.UpsertAnswer(ctx, groupID, p.ProfileID, p.QID, p.Selected); err != nil {
		return fmt.Errorf("upsert answer %s: %w", p.QID, err)
	}
	metrics.QueueFlushes.WithLabelValues(w.queue, "ok").Inc()
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.requeue(ctx, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

// requeue puts a failed payload back at the head of the queue. Newer answers
// to the same question sit behind it, so they are never overwritten by a
// stale retry. A payload that keeps failing is dropped after
// MaxAutosaveAttempts so it cannot stall the queue.
func (w *AutosaveWorker) requeue(ctx context.Context, raw string) {
	var p service.AnswerPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return
	}
	p.Attempts++
	if p.Attempts >= MaxAutosaveAttempts {
		w.log.Error().
			Str("group_id", p.GroupID).
			Int("profile_id", p.ProfileID).
			Str("q_id", p.QID).
			Int("attempts", p.Attempts).
			Msg("Giving up on answer payload")
		metrics.QueueFlushes.WithLabelValues(w.queue, "dropped").Inc()
		return
	}

	next, _ := json.Marshal(p)
	if err := w.rdb.LPush(ctx, w.queue, next).Err(); err != nil {
		w.log.Error().Err(err).Str("q_id", p.QID).Msg("Requeue failed, answer kept only in session snapshot")
		return
	}
	metrics.QueueFlushes.WithLabelValues(w.queue, "retry").Inc()
}
