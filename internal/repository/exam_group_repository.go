package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

// ExamGroupRepository handles exam group, paper and question data access.
type ExamGroupRepository struct {
	pool *pgxpool.Pool
}

// NewExamGroupRepository creates a new ExamGroupRepository.
func NewExamGroupRepository(pool *pgxpool.Pool) *ExamGroupRepository {
	return &ExamGroupRepository{pool: pool}
}

// GetByID loads a group with every paper, question, sub-question and answer
// key. Returns pgx.ErrNoRows when the group does not exist.
func (r *ExamGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamGroup, error) {
	g := &model.ExamGroup{}
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, title, variant, created_at
		 FROM exam_groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Title, &g.Variant, &g.CreatedAt)
	if err != nil {
		return nil, err
	}

	// 1. Papers
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, subject, title, duration
		 FROM exam_papers WHERE group_id = $1
		 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}
	paperIdx := make(map[string]int)
	for rows.Next() {
		var p model.ExamPaper
		if err := rows.Scan(&p.ID, &p.Subject, &p.Title, &p.Duration); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		paperIdx[p.ID] = len(g.Papers)
		g.Papers = append(g.Papers, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 2. Questions
	rows, err = r.pool.Query(ctx,
		`SELECT q.id, q.paper_id::text, q.type, q.content, q.options, q.point, q.correct_answers
		 FROM questions q
		 JOIN exam_papers p ON p.id = q.paper_id
		 WHERE p.group_id = $1
		 ORDER BY p.position, q.position`, id)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	type loc struct{ paper, question int }
	questionIdx := make(map[string]loc)
	for rows.Next() {
		var q model.Question
		var paperID string
		if err := rows.Scan(&q.ID, &paperID, &q.Type, &q.Content, &q.Options, &q.Point, &q.CorrectAnswers); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan question: %w", err)
		}
		pi, ok := paperIdx[paperID]
		if !ok {
			continue
		}
		questionIdx[q.ID] = loc{paper: pi, question: len(g.Papers[pi].Questions)}
		g.Papers[pi].Questions = append(g.Papers[pi].Questions, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 3. Sub-questions
	rows, err = r.pool.Query(ctx,
		`SELECT s.question_id, s.id, s.type, s.content, s.options, s.correct_answers
		 FROM sub_questions s
		 JOIN questions q ON q.id = s.question_id
		 JOIN exam_papers p ON p.id = q.paper_id
		 WHERE p.group_id = $1
		 ORDER BY s.question_id, s.position`, id)
	if err != nil {
		return nil, fmt.Errorf("query sub-questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sq model.SubQuestion
		var questionID string
		if err := rows.Scan(&questionID, &sq.ID, &sq.Type, &sq.Content, &sq.Options, &sq.CorrectAnswers); err != nil {
			return nil, fmt.Errorf("scan sub-question: %w", err)
		}
		l, ok := questionIdx[questionID]
		if !ok {
			continue
		}
		q := &g.Papers[l.paper].Questions[l.question]
		q.SubQuestions = append(q.SubQuestions, sq)
	}
	return g, rows.Err()
}

// ListIDs returns every group id, newest first.
// Used for cache prewarming on application startup.
func (r *ExamGroupRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text FROM exam_groups ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Create inserts a group with all of its papers and questions in one
// transaction. Missing or non-UUID paper ids and missing question ids are
// generated.
func (r *ExamGroupRepository) Create(ctx context.Context, req *model.CreateExamGroupRequest) (*model.ExamGroup, error) {
	g := &model.ExamGroup{
		Title:   req.Title,
		Variant: model.ParseVariant(req.Variant),
		Papers:  make([]model.ExamPaper, len(req.Papers)),
	}
	copy(g.Papers, req.Papers)

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO exam_groups (title, variant) VALUES ($1, $2)
			 RETURNING id::text, created_at`,
			g.Title, g.Variant,
		).Scan(&g.ID, &g.CreatedAt); err != nil {
			return fmt.Errorf("insert group: %w", err)
		}

		batch := &pgx.Batch{}
		for pi := range g.Papers {
			p := &g.Papers[pi]
			if _, err := uuid.Parse(p.ID); err != nil {
				p.ID = uuid.NewString()
			}
			batch.Queue(
				`INSERT INTO exam_papers (id, group_id, position, subject, title, duration)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				p.ID, g.ID, pi, p.Subject, p.Title, p.Duration)

			for qi := range p.Questions {
				q := &p.Questions[qi]
				if q.ID == "" {
					q.ID = uuid.NewString()
				}
				batch.Queue(
					`INSERT INTO questions (id, paper_id, position, type, content, options, point, correct_answers)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
					q.ID, p.ID, qi, q.Type, q.Content, nullJSON(q.Options), q.Point, nonNilStrings(q.CorrectAnswers))

				for si, sq := range q.SubQuestions {
					batch.Queue(
						`INSERT INTO sub_questions (question_id, id, position, type, content, options, correct_answers)
						 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
						q.ID, sq.ID, si, sq.Type, sq.Content, nullJSON(sq.Options), nonNilStrings(sq.CorrectAnswers))
				}
			}
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert papers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
