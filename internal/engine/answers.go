package engine

import (
	"errors"
	"strings"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

var (
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrNotGroupQuestion = errors.New("question has no sub-questions")
	ErrGroupQuestion    = errors.New("group question requires a sub-question id")
)

// AnswerStatus is the navigator widget state of a question.
type AnswerStatus string

const (
	StatusAnswered   AnswerStatus = "answered"
	StatusUnanswered AnswerStatus = "unanswered"
)

// Answer is the selection for one question. Flat questions use Selected,
// group questions use Sub keyed by sub-question id.
type Answer struct {
	Selected []string            `json:"selected,omitempty"`
	Sub      map[string][]string `json:"sub,omitempty"`
}

// AnswerStore maps question ids to answers. Every question starts with an
// empty answer and answers are never removed.
type AnswerStore struct {
	answers   map[string]*Answer
	questions map[string]*model.Question
}

// NewAnswerStore creates empty answers for every question of every paper.
func NewAnswerStore(papers []model.ExamPaper) *AnswerStore {
	s := &AnswerStore{
		answers:   make(map[string]*Answer),
		questions: make(map[string]*model.Question),
	}
	for i := range papers {
		for j := range papers[i].Questions {
			q := &papers[i].Questions[j]
			s.questions[q.ID] = q
			a := &Answer{Selected: []string{}}
			if q.IsGroup() {
				a.Sub = make(map[string][]string, len(q.SubQuestions))
				for _, sq := range q.SubQuestions {
					a.Sub[sq.ID] = []string{}
				}
			}
			s.answers[q.ID] = a
		}
	}
	return s
}

// Question returns the definition of questionID.
func (s *AnswerStore) Question(questionID string) (*model.Question, bool) {
	q, ok := s.questions[questionID]
	return q, ok
}

// SetAnswer toggles value for multi-select questions and replaces the
// selection with [value] otherwise.
func (s *AnswerStore) SetAnswer(questionID, value string, isMultiple bool) error {
	q, ok := s.questions[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if q.IsGroup() {
		return ErrGroupQuestion
	}
	a := s.answers[questionID]
	a.Selected = applySelection(a.Selected, value, isMultiple)
	return nil
}

// SetSubAnswer applies the same toggle/replace rule inside a group question.
func (s *AnswerStore) SetSubAnswer(questionID, subQuestionID, value string, isMultiple bool) error {
	q, ok := s.questions[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if !q.IsGroup() {
		return ErrNotGroupQuestion
	}
	a := s.answers[questionID]
	current, ok := a.Sub[subQuestionID]
	if !ok {
		return ErrUnknownQuestion
	}
	a.Sub[subQuestionID] = applySelection(current, value, isMultiple)
	return nil
}

// Get returns a copy of the stored answer.
func (s *AnswerStore) Get(questionID string) (Answer, bool) {
	a, ok := s.answers[questionID]
	if !ok {
		return Answer{}, false
	}
	return a.clone(), true
}

// Status reports whether questionID counts as answered. A group question
// is answered only when every sub-question is.
func (s *AnswerStore) Status(questionID string) AnswerStatus {
	if s.Answered(questionID) {
		return StatusAnswered
	}
	return StatusUnanswered
}

// Answered is the boolean form of Status.
func (s *AnswerStore) Answered(questionID string) bool {
	q, ok := s.questions[questionID]
	if !ok {
		return false
	}
	a := s.answers[questionID]
	if !q.IsGroup() {
		return filled(a.Selected, q.Type)
	}
	if len(q.SubQuestions) == 0 {
		return false
	}
	for _, sq := range q.SubQuestions {
		if !filled(a.Sub[sq.ID], sq.Type) {
			return false
		}
	}
	return true
}

func (s *AnswerStore) snapshot() map[string]Answer {
	out := make(map[string]Answer, len(s.answers))
	for id, a := range s.answers {
		out[id] = a.clone()
	}
	return out
}

func (s *AnswerStore) restore(saved map[string]Answer) {
	for id, sa := range saved {
		a, ok := s.answers[id]
		if !ok {
			continue
		}
		if sa.Selected != nil {
			a.Selected = append([]string{}, sa.Selected...)
		}
		for subID, sel := range sa.Sub {
			if _, ok := a.Sub[subID]; ok {
				a.Sub[subID] = append([]string{}, sel...)
			}
		}
	}
}

func (a *Answer) clone() Answer {
	out := Answer{Selected: append([]string{}, a.Selected...)}
	if a.Sub != nil {
		out.Sub = make(map[string][]string, len(a.Sub))
		for k, v := range a.Sub {
			out.Sub[k] = append([]string{}, v...)
		}
	}
	return out
}

func applySelection(list []string, value string, isMultiple bool) []string {
	if !isMultiple {
		return []string{value}
	}
	for i, v := range list {
		if v == value {
			out := make([]string, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return append(append(make([]string, 0, len(list)+1), list...), value)
}

func filled(selected []string, t model.QuestionType) bool {
	if len(selected) == 0 {
		return false
	}
	if t == model.QuestionTypeShortAnswer {
		return strings.TrimSpace(selected[0]) != ""
	}
	return true
}
