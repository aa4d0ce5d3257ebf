package service

import (
	"context"
	"sync"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

type fakeGroups struct {
	groups map[string]*model.ExamGroup
}

func (f *fakeGroups) GetFull(_ context.Context, groupID string) (*model.ExamGroup, error) {
	g, ok := f.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

type fakeSink struct {
	mu      sync.Mutex
	results []model.GroupResult
	err     error
}

func (f *fakeSink) EnqueueResult(_ context.Context, res model.GroupResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.results = append(f.results, res)
	return nil
}

type memStore struct {
	mu    sync.Mutex
	snaps map[string]engine.Snapshot
	saves int
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]engine.Snapshot)}
}

func (m *memStore) Load(_ context.Context, groupID string, profileID int) (*engine.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[liveKey(groupID, profileID)]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *memStore) Save(_ context.Context, snap engine.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[liveKey(snap.GroupID, snap.ProfileID)] = snap
	m.saves++
	return nil
}

type fakeAutosave struct {
	mu       sync.Mutex
	payloads []AnswerPayload
}

func (f *fakeAutosave) Autosave(_ context.Context, p AnswerPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return nil
}

func (f *fakeAutosave) all() []AnswerPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AnswerPayload(nil), f.payloads...)
}

func q(id string, t model.QuestionType, point float64, key ...string) model.Question {
	return model.Question{ID: id, Type: t, Point: point, CorrectAnswers: key}
}

// scienceGroup merges into Math then Physics-Chemistry-Biology; 8 points.
func scienceGroup() *model.ExamGroup {
	return &model.ExamGroup{
		ID:      "grp",
		Variant: model.VariantTSA,
		Papers: []model.ExamPaper{
			{ID: "m", Subject: model.SubjectMath, Questions: []model.Question{
				q("q1", model.QuestionTypeSingleChoice, 2, "A"),
				{ID: "q2", Type: model.QuestionTypeGroup, Point: 3, SubQuestions: []model.SubQuestion{
					{ID: "a", Type: model.QuestionTypeSingleChoice, CorrectAnswers: []string{"A"}},
					{ID: "b", Type: model.QuestionTypeShortAnswer, CorrectAnswers: []string{"42"}},
				}},
			}},
			{ID: "p", Subject: model.SubjectPhysics, Questions: []model.Question{q("pq", model.QuestionTypeSingleChoice, 1, "B")}},
			{ID: "c", Subject: model.SubjectChemistry, Questions: []model.Question{q("cq", model.QuestionTypeMultipleChoice, 1, "A", "B")}},
			{ID: "b", Subject: model.SubjectBiology, Questions: []model.Question{q("bq", model.QuestionTypeSingleChoice, 1, "C")}},
		},
	}
}
