package handler

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/middleware"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
)

const testGroupID = "0b6c3f0e-6a51-4c53-9d7e-2f3f6f1d9a10"

func init() {
	gin.SetMode(gin.TestMode)
}

// asStudent stands in for the JWT middleware.
func asStudent(profileID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{
			TokenType: service.TokenTypeStudent,
			ProfileID: profileID,
		})
		c.Next()
	}
}

func mathGroup() *model.ExamGroup {
	return &model.ExamGroup{
		ID:      testGroupID,
		Title:   "Thi thu TSA",
		Variant: model.VariantTSA,
		Papers: []model.ExamPaper{{
			ID:      "m",
			Subject: model.SubjectMath,
			Questions: []model.Question{
				{ID: "q1", Type: model.QuestionTypeSingleChoice, Point: 2, CorrectAnswers: []string{"A"}},
				{ID: "q2", Type: model.QuestionTypeMultipleChoice, Point: 2, CorrectAnswers: []string{"A", "B"}},
			},
		}},
	}
}

type fakeGroups struct {
	group      *model.ExamGroup
	err        error
	refreshed  []string
	refreshErr error
}

func (f *fakeGroups) GetFull(_ context.Context, groupID string) (*model.ExamGroup, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.group == nil || f.group.ID != groupID {
		return nil, service.ErrGroupNotFound
	}
	return f.group, nil
}

func (f *fakeGroups) GetForStudent(ctx context.Context, groupID string) (*model.ExamGroup, error) {
	return f.GetFull(ctx, groupID)
}

func (f *fakeGroups) Plan(ctx context.Context, groupID string) (*engine.Plan, error) {
	g, err := f.GetFull(ctx, groupID)
	if err != nil {
		return nil, err
	}
	plan := engine.BuildPlan(g)
	return &plan, nil
}

func (f *fakeGroups) RefreshCache(_ context.Context, groupID string) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.refreshed = append(f.refreshed, groupID)
	return nil
}

type fakeGrader struct {
	profileID int
	got       model.GroupSubmission
	result    *model.SubmitResult
	err       error
}

func (f *fakeGrader) SubmitAs(_ context.Context, profileID int, sub model.GroupSubmission) (*model.SubmitResult, error) {
	f.profileID = profileID
	f.got = sub
	return f.result, f.err
}

type fakeLeaderboard struct {
	limit   int
	entries []model.LeaderboardEntry
	err     error
}

func (f *fakeLeaderboard) Top(_ context.Context, _ string, limit int) ([]model.LeaderboardEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []model.GroupSubmission
}

func (f *fakeSubmitter) Submit(_ context.Context, sub model.GroupSubmission) (*model.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub)
	return &model.SubmitResult{
		TotalPoint:  2,
		Submissions: []model.PaperResult{{ExamID: "m", Point: 2, MaxPoint: 4, Correct: 1}},
	}, nil
}

type memStore struct {
	mu    sync.Mutex
	snaps map[string]engine.Snapshot
}

func newMemStore() *memStore { return &memStore{snaps: make(map[string]engine.Snapshot)} }

func (m *memStore) Load(_ context.Context, groupID string, profileID int) (*engine.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[groupID]
	if !ok || snap.ProfileID != profileID {
		return nil, nil
	}
	return &snap, nil
}

func (m *memStore) Save(_ context.Context, snap engine.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.GroupID] = snap
	return nil
}
