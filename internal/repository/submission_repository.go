package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

// SubmissionRepository persists graded group results and autosaved answers.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// SaveResults inserts a batch of group results and their per-paper rows in
// one transaction using UNNEST.
func (r *SubmissionRepository) SaveResults(ctx context.Context, results []model.GroupResult) error {
	if len(results) == 0 {
		return nil
	}

	n := len(results)
	ids := make([]uuid.UUID, n)
	groupIDs := make([]uuid.UUID, n)
	profiles := make([]int, n)
	totals := make([]float64, n)
	maxes := make([]float64, n)
	times := make([]int, n)
	submittedAts := make([]time.Time, n)

	var (
		pSubIDs   []uuid.UUID
		pPaperIDs []uuid.UUID
		pPoints   []float64
		pMaxes    []float64
		pCorrect  []int
		pTimes    []int
		pAnswers  []string
	)

	for i := range results {
		res := &results[i]
		gID, err := uuid.Parse(res.GroupID)
		if err != nil {
			return fmt.Errorf("parse group id %q: %w", res.GroupID, err)
		}
		ids[i] = uuid.New()
		groupIDs[i] = gID
		profiles[i] = res.ProfileID
		totals[i] = res.TotalPoint
		maxes[i] = res.MaxPoint
		times[i] = res.TotalTime
		submittedAts[i] = res.SubmittedAt
		if submittedAts[i].IsZero() {
			submittedAts[i] = time.Now()
		}

		answers := answersByPaper(res.Answers)
		for _, p := range res.Papers {
			pID, err := uuid.Parse(p.ExamID)
			if err != nil {
				return fmt.Errorf("parse paper id %q: %w", p.ExamID, err)
			}
			raw, err := json.Marshal(answers[p.ExamID])
			if err != nil {
				return fmt.Errorf("marshal answers: %w", err)
			}
			pSubIDs = append(pSubIDs, ids[i])
			pPaperIDs = append(pPaperIDs, pID)
			pPoints = append(pPoints, p.Point)
			pMaxes = append(pMaxes, p.MaxPoint)
			pCorrect = append(pCorrect, p.Correct)
			pTimes = append(pTimes, p.TotalTime)
			pAnswers = append(pAnswers, string(raw))
		}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO group_submissions (id, group_id, profile_id, total_point, max_point, total_time, submitted_at)
			SELECT * FROM UNNEST(
				$1::uuid[],
				$2::uuid[],
				$3::int[],
				$4::float8[],
				$5::float8[],
				$6::int[],
				$7::timestamptz[]
			)`, ids, groupIDs, profiles, totals, maxes, times, submittedAts); err != nil {
			return fmt.Errorf("insert group submissions: %w", err)
		}

		if len(pSubIDs) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO paper_submissions (submission_id, paper_id, point, max_point, correct, total_time, answers)
			SELECT u.submission_id, u.paper_id, u.point, u.max_point, u.correct, u.total_time, u.answers::jsonb
			FROM UNNEST(
				$1::uuid[],
				$2::uuid[],
				$3::float8[],
				$4::float8[],
				$5::int[],
				$6::int[],
				$7::text[]
			) AS u (submission_id, paper_id, point, max_point, correct, total_time, answers)`,
			pSubIDs, pPaperIDs, pPoints, pMaxes, pCorrect, pTimes, pAnswers); err != nil {
			return fmt.Errorf("insert paper submissions: %w", err)
		}
		return nil
	})
}

// UpsertAnswer stores the latest selection for one flattened question id.
func (r *SubmissionRepository) UpsertAnswer(ctx context.Context, groupID uuid.UUID, profileID int, questionID string, selected []string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO group_answers (group_id, profile_id, question_id, selected)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (group_id, profile_id, question_id) DO UPDATE
		 SET selected = EXCLUDED.selected, updated_at = NOW()`,
		groupID, profileID, questionID, nonNilStrings(selected),
	)
	return err
}

// TopScores returns each student's best total for a group, highest first.
// Used to rebuild the Redis leaderboard.
func (r *SubmissionRepository) TopScores(ctx context.Context, groupID uuid.UUID, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT profile_id, MAX(total_point) AS best
		 FROM group_submissions
		 WHERE group_id = $1
		 GROUP BY profile_id
		 ORDER BY best DESC, profile_id
		 LIMIT $2`, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		e := model.LeaderboardEntry{Rank: len(out) + 1}
		if err := rows.Scan(&e.ProfileID, &e.Point); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func answersByPaper(subs []model.PaperSubmission) map[string][]model.AnswerEntry {
	out := make(map[string][]model.AnswerEntry, len(subs))
	for _, s := range subs {
		out[s.ExamID] = s.Answers
	}
	return out
}
