package engine

import (
	"context"
	"math"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

// Submitter sends the aggregate submission to the grading collaborator.
type Submitter interface {
	Submit(ctx context.Context, sub model.GroupSubmission) (*model.SubmitResult, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub model.GroupSubmission) (*model.SubmitResult, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, sub model.GroupSubmission) (*model.SubmitResult, error) {
	return f(ctx, sub)
}

// Ledger maps tab ids to elapsed seconds, recorded when a tab is left.
type Ledger map[string]int

// Record stores the elapsed time for tabID. Elapsed time on a tab only
// grows, so a later record never lowers an earlier one.
func (l Ledger) Record(tabID string, seconds int) {
	if cur, ok := l[tabID]; !ok || seconds > cur {
		l[tabID] = seconds
	}
}

// Total sums every tab's elapsed seconds.
func (l Ledger) Total() int {
	total := 0
	for _, v := range l {
		total += v
	}
	return total
}

// FlattenPaper expands a paper's answers into submission entries. Group
// questions contribute one entry per sub-question.
func FlattenPaper(paper *model.ExamPaper, store *AnswerStore) []model.AnswerEntry {
	entries := make([]model.AnswerEntry, 0, len(paper.Questions))
	for i := range paper.Questions {
		q := &paper.Questions[i]
		a, _ := store.Get(q.ID)

		if !q.IsGroup() {
			entries = append(entries, model.AnswerEntry{
				QuestionID:     q.ID,
				SelectedAnswer: nonNil(a.Selected),
			})
			continue
		}

		for _, sq := range q.SubQuestions {
			entries = append(entries, model.AnswerEntry{
				QuestionID:     model.CompositeQuestionID(q.ID, sq.ID),
				SelectedAnswer: nonNil(a.Sub[sq.ID]),
			})
		}
	}
	return entries
}

// BuildSubmission assembles one record per paper. Every paper reports the
// ledger value of the tab that contains it, so papers sharing the science
// tab report the same elapsed time.
func BuildSubmission(groupID string, profileID int, tabs []Tab, store *AnswerStore, ledger Ledger) model.GroupSubmission {
	sub := model.GroupSubmission{GroupID: groupID}
	for i := range tabs {
		elapsed := ledger[tabs[i].ID]
		for j := range tabs[i].Papers {
			paper := &tabs[i].Papers[j]
			sub.Exams = append(sub.Exams, model.PaperSubmission{
				ExamID:    paper.ID,
				ProfileID: profileID,
				Answers:   FlattenPaper(paper, store),
				TotalTime: elapsed,
			})
		}
	}
	return sub
}

// Result is the terminal summary shown once a session ends.
type Result struct {
	Scored      bool                `json:"scored"`
	TotalPoint  float64             `json:"total_point"`
	MaxPoint    float64             `json:"max_point"`
	Percentage  float64             `json:"percentage"`
	TotalTime   int                 `json:"total_time"`
	Submissions []model.PaperResult `json:"submissions,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Summarize turns a grading response into a Result.
func Summarize(res *model.SubmitResult, maxPoint float64, totalTime int) Result {
	out := Result{
		Scored:    true,
		MaxPoint:  maxPoint,
		TotalTime: totalTime,
	}
	if res == nil {
		return out
	}
	out.TotalPoint = res.TotalPoint
	out.Submissions = res.Submissions
	if maxPoint > 0 {
		out.Percentage = math.Round(res.TotalPoint/maxPoint*10000) / 100
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}
