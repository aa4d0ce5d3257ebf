package model

import "time"

// AnswerEntry is one flattened (question or sub-question, selection) pair.
// Sub-question entries use the composite id "{questionId}_{subQuestionId}".
type AnswerEntry struct {
	QuestionID     string   `json:"questionId" binding:"required"`
	SelectedAnswer []string `json:"selectedAnswer"`
}

// CompositeQuestionID is the submission id of a sub-question answer.
func CompositeQuestionID(questionID, subQuestionID string) string {
	return questionID + "_" + subQuestionID
}

// PaperSubmission is the outbound record for one exam paper.
type PaperSubmission struct {
	ExamID    string        `json:"examId" binding:"required"`
	ProfileID int           `json:"profileId"`
	Answers   []AnswerEntry `json:"answers" binding:"dive"`
	// TotalTime is elapsed seconds on the tab that owns the paper.
	TotalTime int `json:"totalTime" binding:"min=0"`
}

// GroupSubmission is the single aggregate request sent when a session ends.
type GroupSubmission struct {
	GroupID string            `json:"groupId" binding:"required"`
	Exams   []PaperSubmission `json:"exams" binding:"required,min=1,dive"`
}

// PaperResult is the graded outcome of one paper.
type PaperResult struct {
	ExamID    string  `json:"examId"`
	Point     float64 `json:"point"`
	MaxPoint  float64 `json:"maxPoint"`
	Correct   int     `json:"correct"`
	TotalTime int     `json:"totalTime"`
}

// SubmitResult is returned by the submit endpoint.
type SubmitResult struct {
	TotalPoint  float64       `json:"totalPoint"`
	Submissions []PaperResult `json:"submissions"`
}

// GroupResult is what the scoring worker persists.
type GroupResult struct {
	GroupID     string            `json:"group_id"`
	ProfileID   int               `json:"profile_id"`
	TotalPoint  float64           `json:"total_point"`
	MaxPoint    float64           `json:"max_point"`
	TotalTime   int               `json:"total_time"`
	Papers      []PaperResult     `json:"papers"`
	Answers     []PaperSubmission `json:"answers"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// LeaderboardEntry is a single ranked row.
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	ProfileID int     `json:"profile_id"`
	Point     float64 `json:"point"`
}
