package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

func single(id string, point float64, key ...string) model.Question {
	return model.Question{ID: id, Type: model.QuestionTypeSingleChoice, Point: point, CorrectAnswers: key}
}

// fullGroup is a five-subject HSA group worth 20 points.
func fullGroup() *model.ExamGroup {
	return &model.ExamGroup{
		ID:      "g1",
		Title:   "Mock HSA",
		Variant: model.VariantHSA,
		Papers: []model.ExamPaper{
			{ID: "m1", Subject: model.SubjectMath, Questions: []model.Question{
				single("m1q1", 2, "A"),
				{ID: "m1q2", Type: model.QuestionTypeMultipleChoice, Point: 3, CorrectAnswers: []string{"A", "C"}},
			}},
			{ID: "p1", Subject: model.SubjectPhysics, Questions: []model.Question{single("p1q1", 4, "B")}},
			{ID: "l1", Subject: model.SubjectLiterature, Questions: []model.Question{
				{ID: "l1q1", Type: model.QuestionTypeShortAnswer, Point: 2, CorrectAnswers: []string{"Ha Noi"}},
				{ID: "l1q2", Type: model.QuestionTypeGroup, Point: 3, SubQuestions: []model.SubQuestion{
					{ID: "a", Type: model.QuestionTypeSingleChoice, CorrectAnswers: []string{"A"}},
					{ID: "b", Type: model.QuestionTypeMultipleChoice, CorrectAnswers: []string{"B", "D"}},
				}},
			}},
			{ID: "c1", Subject: model.SubjectChemistry, Questions: []model.Question{single("c1q1", 3, "C")}},
			{ID: "b1", Subject: model.SubjectBiology, Questions: []model.Question{single("b1q1", 3, "D")}},
		},
	}
}

// zeroGroup has two tabs with no allotted time.
func zeroGroup() *model.ExamGroup {
	return &model.ExamGroup{
		ID:      "g0",
		Variant: model.VariantTSA,
		Papers: []model.ExamPaper{
			{ID: "his", Subject: "history", Duration: "0", Questions: []model.Question{single("h1", 1, "A")}},
			{ID: "geo", Subject: "geography", Duration: "0", Questions: []model.Question{single("g1", 1, "A")}},
		},
	}
}

// fakeSubmitter records every submission and returns a fixed result.
type fakeSubmitter struct {
	mu     sync.Mutex
	calls  []model.GroupSubmission
	result *model.SubmitResult
	err    error
}

func (f *fakeSubmitter) Submit(_ context.Context, sub model.GroupSubmission) (*model.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSubmitter) Calls() []model.GroupSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.GroupSubmission(nil), f.calls...)
}

var errGradingDown = errors.New("grading unavailable")

func paperByID(sub model.GroupSubmission, id string) *model.PaperSubmission {
	for i := range sub.Exams {
		if sub.Exams[i].ExamID == id {
			return &sub.Exams[i]
		}
	}
	return nil
}
