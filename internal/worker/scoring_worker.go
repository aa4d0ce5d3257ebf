package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/metrics"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// ResultWriter persists graded group results.
type ResultWriter interface {
	SaveResults(ctx context.Context, results []model.GroupResult) error
}

// ScoringWorker batches graded results from persist_group_results_queue
// into PostgreSQL, then updates the leaderboard and clears autosave buffers.
type ScoringWorker struct {
	repo  ResultWriter
	rdb   redis.Cmdable
	queue string
	log   zerolog.Logger
}

func NewScoringWorker(repo ResultWriter, rdb redis.Cmdable, log zerolog.Logger) *ScoringWorker {
	return &ScoringWorker{
		repo:  repo,
		rdb:   rdb,
		queue: config.WorkerKey.PersistGroupResultsQueue,
		log:   log.With().Str("component", "scoring_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ScoringWorker started")

	batch := make([]model.GroupResult, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ScoreBatchSize || time.Since(lastFlush) >= ScoreBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.drainInto(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ScorePollTimeout, w.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			if res, ok := w.decode(item[1]); ok {
				batch = append(batch, res)
			}
		}
	}
}

func (w *ScoringWorker) decode(raw string) (model.GroupResult, bool) {
	var res model.GroupResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		metrics.QueueFlushes.WithLabelValues(w.queue, "dropped").Inc()
		return res, false
	}
	return res, true
}

// drainInto empties the queue into batch and flushes everything.
func (w *ScoringWorker) drainInto(ctx context.Context, batch []model.GroupResult) {
	for {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}
		if res, ok := w.decode(raw); ok {
			batch = append(batch, res)
		}
		if len(batch) >= ScoreBatchSize {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
		}
	}
	w.flushSafe(ctx, batch)
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *ScoringWorker) flushSafe(ctx context.Context, batch []model.GroupResult) {
	if len(batch) == 0 {
		return
	}

	if err := w.repo.SaveResults(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk result insert failed, using fallback")

		saved := make([]model.GroupResult, 0, len(batch))
		for _, res := range batch {
			if err := w.repo.SaveResults(ctx, []model.GroupResult{res}); err != nil {
				w.log.Error().Err(err).
					Str("group_id", res.GroupID).
					Int("profile_id", res.ProfileID).
					Msg("single insert failed, requeueing")
				metrics.QueueFlushes.WithLabelValues(w.queue, "retry").Inc()
				raw, _ := json.Marshal(res)
				w.rdb.RPush(ctx, w.queue, raw)
				continue
			}
			saved = append(saved, res)
		}
		w.afterPersist(ctx, saved)
		return
	}

	w.afterPersist(ctx, batch)
}

// afterPersist records best scores and clears the autosave hashes of
// persisted results in one pipeline.
func (w *ScoringWorker) afterPersist(ctx context.Context, saved []model.GroupResult) {
	if len(saved) == 0 {
		return
	}
	metrics.QueueFlushes.WithLabelValues(w.queue, "ok").Add(float64(len(saved)))

	pipe := w.rdb.Pipeline()
	for _, res := range saved {
		pipe.ZAddGT(ctx, config.CacheKey.GroupLeaderboardKey(res.GroupID), redis.Z{
			Score:  res.TotalPoint,
			Member: strconv.Itoa(res.ProfileID),
		})
		pipe.Del(ctx, config.CacheKey.GroupAnswersKey(res.GroupID, res.ProfileID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Warn().Err(err).Msg("Leaderboard update failed")
	}
}
