package model

import (
	"encoding/json"
	"time"
)

// QuestionType enumerates how a question is answered.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeGroup          QuestionType = "group"
)

// ExamGroup is a multi-subject mock exam made of several papers.
type ExamGroup struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Variant   Variant     `json:"variant"`
	Papers    []ExamPaper `json:"papers"`
	CreatedAt time.Time   `json:"created_at"`
}

// ExamPaper is one subject's exam instance inside a group.
type ExamPaper struct {
	ID      string  `json:"id"`
	Subject Subject `json:"subject"`
	Title   string  `json:"title"`
	// Duration is the paper's self-declared duration in minutes. Only used
	// when the subject has no entry in the duration table.
	Duration  string     `json:"duration"`
	Questions []Question `json:"questions"`
}

// Question is a single exam question. Group questions carry sub-questions
// that share one prompt.
type Question struct {
	ID             string          `json:"id"`
	Type           QuestionType    `json:"type"`
	Content        string          `json:"content"`
	Options        json.RawMessage `json:"options,omitempty"`
	Point          float64         `json:"point"`
	CorrectAnswers []string        `json:"correct_answers,omitempty"`
	SubQuestions   []SubQuestion   `json:"sub_questions,omitempty"`
}

// SubQuestion is a question nested inside a group question.
type SubQuestion struct {
	ID             string          `json:"id"`
	Type           QuestionType    `json:"type"`
	Content        string          `json:"content"`
	Options        json.RawMessage `json:"options,omitempty"`
	CorrectAnswers []string        `json:"correct_answers,omitempty"`
}

// IsGroup reports whether q has nested sub-questions.
func (q *Question) IsGroup() bool {
	return q.Type == QuestionTypeGroup
}

// MaxPoint sums every question's point value.
func (p *ExamPaper) MaxPoint() float64 {
	var total float64
	for i := range p.Questions {
		total += p.Questions[i].Point
	}
	return total
}

// MaxPoint sums every question's point value across every paper.
func (g *ExamGroup) MaxPoint() float64 {
	var total float64
	for i := range g.Papers {
		total += g.Papers[i].MaxPoint()
	}
	return total
}

// ForStudent returns a deep copy of the group with all answer keys removed.
func (g *ExamGroup) ForStudent() *ExamGroup {
	out := *g
	out.Papers = make([]ExamPaper, len(g.Papers))
	for i, p := range g.Papers {
		cp := p
		cp.Questions = make([]Question, len(p.Questions))
		for j, q := range p.Questions {
			cq := q
			cq.CorrectAnswers = nil
			if len(q.SubQuestions) > 0 {
				cq.SubQuestions = make([]SubQuestion, len(q.SubQuestions))
				for k, sq := range q.SubQuestions {
					sq.CorrectAnswers = nil
					cq.SubQuestions[k] = sq
				}
			}
			cp.Questions[j] = cq
		}
		out.Papers[i] = cp
	}
	return &out
}

// CreateExamGroupRequest is the document accepted by the seed tool.
type CreateExamGroupRequest struct {
	Title   string      `json:"title" binding:"required,min=3,max=255"`
	Variant string      `json:"variant" binding:"required,exam_variant"`
	Papers  []ExamPaper `json:"papers" binding:"required,min=1"`
}
