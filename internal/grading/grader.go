// Package grading scores submitted answers against a paper's answer keys.
package grading

import (
	"strings"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

// Strategy decides whether a selection matches the answer key of one
// question type.
type Strategy interface {
	Match(key, selected []string) bool
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(key, selected []string) bool

// Match calls f.
func (f StrategyFunc) Match(key, selected []string) bool { return f(key, selected) }

// Grader routes questions to the strategy of their type.
type Grader struct {
	strategies map[model.QuestionType]Strategy
}

// NewGrader installs the built-in strategies.
func NewGrader() *Grader {
	return &Grader{
		strategies: map[model.QuestionType]Strategy{
			model.QuestionTypeSingleChoice:   StrategyFunc(matchSingle),
			model.QuestionTypeMultipleChoice: StrategyFunc(matchSet),
			model.QuestionTypeShortAnswer:    StrategyFunc(matchText),
		},
	}
}

// Matches reports whether selected is correct for a question of type t.
// Unknown types never match.
func (g *Grader) Matches(t model.QuestionType, key, selected []string) bool {
	s, ok := g.strategies[t]
	if !ok || len(key) == 0 {
		return false
	}
	return s.Match(key, selected)
}

// GradePaper scores answers for one paper. Group questions earn their
// point value in proportion to correctly answered sub-questions; their
// entries use the "{questionId}_{subQuestionId}" ids.
func (g *Grader) GradePaper(paper *model.ExamPaper, answers []model.AnswerEntry) model.PaperResult {
	byID := make(map[string][]string, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a.SelectedAnswer
	}

	res := model.PaperResult{ExamID: paper.ID, MaxPoint: paper.MaxPoint()}
	for i := range paper.Questions {
		q := &paper.Questions[i]

		if !q.IsGroup() {
			if g.Matches(q.Type, q.CorrectAnswers, byID[q.ID]) {
				res.Point += q.Point
				res.Correct++
			}
			continue
		}

		if len(q.SubQuestions) == 0 {
			continue
		}
		hits := 0
		for _, sq := range q.SubQuestions {
			if g.Matches(sq.Type, sq.CorrectAnswers, byID[model.CompositeQuestionID(q.ID, sq.ID)]) {
				hits++
			}
		}
		res.Point += q.Point * float64(hits) / float64(len(q.SubQuestions))
		if hits == len(q.SubQuestions) {
			res.Correct++
		}
	}
	return res
}

func matchSingle(key, selected []string) bool {
	if len(selected) != 1 {
		return false
	}
	return strings.TrimSpace(selected[0]) == strings.TrimSpace(key[0])
}

func matchSet(key, selected []string) bool {
	if len(selected) == 0 {
		return false
	}
	want := make(map[string]bool, len(key))
	for _, k := range key {
		want[strings.TrimSpace(k)] = true
	}
	got := make(map[string]bool, len(selected))
	for _, s := range selected {
		s = strings.TrimSpace(s)
		if !want[s] {
			return false
		}
		got[s] = true
	}
	return len(got) == len(want)
}

// matchText compares trimmed, case-folded, whitespace-collapsed text
// against every accepted answer.
func matchText(key, selected []string) bool {
	if len(selected) == 0 {
		return false
	}
	answer := normalizeText(selected[0])
	if answer == "" {
		return false
	}
	for _, k := range key {
		if normalizeText(k) == answer {
			return true
		}
	}
	return false
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
