package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, sel ...string) model.AnswerEntry {
	if sel == nil {
		sel = []string{}
	}
	return model.AnswerEntry{QuestionID: id, SelectedAnswer: sel}
}

func submission(profileID int) model.GroupSubmission {
	return model.GroupSubmission{
		GroupID: "grp",
		Exams: []model.PaperSubmission{
			{ExamID: "m", ProfileID: profileID, TotalTime: 100, Answers: []model.AnswerEntry{
				entry("q1", "A"), entry("q2_a", "A"), entry("q2_b", "41"),
			}},
			{ExamID: "p", ProfileID: profileID, TotalTime: 200, Answers: []model.AnswerEntry{entry("pq", "B")}},
			{ExamID: "c", ProfileID: profileID, TotalTime: 200, Answers: []model.AnswerEntry{entry("cq", "A")}},
			{ExamID: "b", ProfileID: profileID, TotalTime: 200, Answers: []model.AnswerEntry{entry("bq", "C")}},
		},
	}
}

func newGrading(sink *fakeSink) *GradingService {
	groups := &fakeGroups{groups: map[string]*model.ExamGroup{"grp": scienceGroup()}}
	return NewGradingService(groups, sink, zerolog.Nop())
}

func TestGradingService_Submit(t *testing.T) {
	sink := &fakeSink{}
	svc := newGrading(sink)

	res, err := svc.Submit(context.Background(), submission(9))
	require.NoError(t, err)

	assert.InDelta(t, 5.5, res.TotalPoint, 1e-9)
	require.Len(t, res.Submissions, 4)
	assert.InDelta(t, 3.5, res.Submissions[0].Point, 1e-9)
	assert.Equal(t, 1, res.Submissions[0].Correct)
	assert.Equal(t, 100, res.Submissions[0].TotalTime)
	assert.Equal(t, 0.0, res.Submissions[2].Point)

	require.Len(t, sink.results, 1)
	got := sink.results[0]
	assert.Equal(t, 9, got.ProfileID)
	assert.Equal(t, 8.0, got.MaxPoint)
	assert.Equal(t, 300, got.TotalTime, "science papers share one tab")
	assert.False(t, got.SubmittedAt.IsZero())
	assert.Len(t, got.Answers, 4)
}

func TestGradingService_Rejections(t *testing.T) {
	ctx := context.Background()
	svc := newGrading(&fakeSink{})

	_, err := svc.Submit(ctx, model.GroupSubmission{GroupID: "grp"})
	assert.ErrorIs(t, err, ErrEmptySubmission)

	sub := submission(9)
	sub.GroupID = "missing"
	_, err = svc.Submit(ctx, sub)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	sub = submission(9)
	sub.Exams[1].ExamID = "zzz"
	_, err = svc.Submit(ctx, sub)
	assert.ErrorIs(t, err, ErrUnknownPaper)

	sub = submission(9)
	sub.Exams[2].ExamID = "p"
	_, err = svc.Submit(ctx, sub)
	assert.ErrorIs(t, err, ErrDuplicatePaper)

	sub = submission(9)
	sub.Exams[3].ProfileID = 10
	_, err = svc.Submit(ctx, sub)
	assert.ErrorIs(t, err, ErrProfileMismatch)

	_, err = svc.SubmitAs(ctx, 10, submission(9))
	assert.ErrorIs(t, err, ErrProfileMismatch)
}

func TestGradingService_SinkFailure(t *testing.T) {
	svc := newGrading(&fakeSink{err: errors.New("redis down")})

	_, err := svc.Submit(context.Background(), submission(9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue result")
}

type brokenTracker struct{}

func (brokenTracker) HasSession(context.Context, string, int) (bool, error) {
	return false, errors.New("redis down")
}

func TestGradingService_SubmitAsRefusesLiveSessions(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	svc := newGrading(sink)
	live := NewLiveSessionService(svc.groups, svc, newMemStore(), nil, LiveSessionConfig{TickInterval: time.Hour}, zerolog.Nop())
	svc.GuardLiveSessions(live)

	_, err := svc.SubmitAs(ctx, 9, submission(9))
	require.NoError(t, err)

	ls, err := live.Open(ctx, "grp", 9)
	require.NoError(t, err)
	_, err = svc.SubmitAs(ctx, 9, submission(9))
	assert.ErrorIs(t, err, ErrSessionInProgress)

	// The saved snapshot keeps the exam bound after the socket is gone.
	ls.Close()
	_, err = svc.SubmitAs(ctx, 9, submission(9))
	assert.ErrorIs(t, err, ErrSessionInProgress)

	_, err = svc.SubmitAs(ctx, 10, submission(10))
	require.NoError(t, err)
	assert.Len(t, sink.results, 2)
}

func TestGradingService_SubmitAsTrackerFailure(t *testing.T) {
	svc := newGrading(&fakeSink{})
	svc.GuardLiveSessions(brokenTracker{})

	_, err := svc.SubmitAs(context.Background(), 9, submission(9))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionInProgress)
	assert.Contains(t, err.Error(), "check live session")
}
