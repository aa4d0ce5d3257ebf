package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLive(t *testing.T, store *memStore, autosave Autosaver) *LiveSessionService {
	t.Helper()
	groups := &fakeGroups{groups: map[string]*model.ExamGroup{"grp": scienceGroup()}}
	grading := NewGradingService(groups, &fakeSink{}, zerolog.Nop())
	return NewLiveSessionService(groups, grading, store, autosave, LiveSessionConfig{
		TickInterval:       time.Hour,
		SnapshotEveryTicks: 5,
	}, zerolog.Nop())
}

func TestLiveSession_ResumesAfterClose(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	autosave := &fakeAutosave{}
	svc := newLive(t, store, autosave)

	ls, err := svc.Open(ctx, "grp", 9)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Active())

	_, err = ls.Do(ctx, engine.Command{Kind: engine.CommandStart})
	require.NoError(t, err)
	_, err = ls.Do(ctx, engine.Command{Kind: engine.CommandSubAnswer, QuestionID: "q2", SubQuestionID: "b", Value: "42"})
	require.NoError(t, err)
	view, err := ls.Do(ctx, engine.Command{Kind: engine.CommandAdvance})
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentIndex)

	ls.Close()
	assert.Equal(t, []AnswerPayload{{GroupID: "grp", ProfileID: 9, QID: "q2_b", Selected: []string{"42"}}}, autosave.all())

	resumed, err := svc.Open(ctx, "grp", 9)
	require.NoError(t, err)
	defer resumed.Close()

	view, err = resumed.Do(ctx, engine.Command{Kind: engine.CommandView})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusRunning, view.Status)
	assert.Equal(t, 1, view.CurrentIndex)
	assert.Equal(t, engine.ScienceTabID, view.CurrentTab.ID)
	assert.True(t, view.Tabs[0].Locked)
}

func TestLiveSession_OpenTakesOver(t *testing.T) {
	ctx := context.Background()
	svc := newLive(t, newMemStore(), &fakeAutosave{})

	first, err := svc.Open(ctx, "grp", 9)
	require.NoError(t, err)
	second, err := svc.Open(ctx, "grp", 9)
	require.NoError(t, err)

	select {
	case <-first.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("first session was not stopped")
	}
	_, err = first.Do(ctx, engine.Command{Kind: engine.CommandView})
	assert.ErrorIs(t, err, engine.ErrRunnerStopped)

	require.NoError(t, svc.Shutdown(ctx))
	<-second.Done()
	assert.Equal(t, 0, svc.Active())
}

func TestLiveSession_FinishSubmitsThroughGrading(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newLive(t, store, nil)

	ls, err := svc.Open(ctx, "grp", 9)
	require.NoError(t, err)

	_, err = ls.Do(ctx, engine.Command{Kind: engine.CommandStart})
	require.NoError(t, err)
	_, err = ls.Do(ctx, engine.Command{Kind: engine.CommandAnswer, QuestionID: "q1", Value: "A"})
	require.NoError(t, err)
	_, err = ls.Do(ctx, engine.Command{Kind: engine.CommandAdvance})
	require.NoError(t, err)
	view, err := ls.Do(ctx, engine.Command{Kind: engine.CommandFinish})
	require.NoError(t, err)

	assert.Equal(t, engine.StatusFinished, view.Status)
	require.NotNil(t, view.Result)
	assert.True(t, view.Result.Scored)
	assert.Equal(t, 2.0, view.Result.TotalPoint)
	assert.Equal(t, 25.0, view.Result.Percentage)

	<-ls.Done()
	snap, err := store.Load(ctx, "grp", 9)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFinished, snap.Status)
}

func TestLiveSession_UnknownGroup(t *testing.T) {
	svc := newLive(t, newMemStore(), nil)
	_, err := svc.Open(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

// slowGroups holds GetFull open long enough for concurrent opens to overlap.
type slowGroups struct {
	GroupSource
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (g *slowGroups) GetFull(ctx context.Context, groupID string) (*model.ExamGroup, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return g.GroupSource.GetFull(ctx, groupID)
}

func TestLiveSession_ConcurrentOpensLeaveOneRunner(t *testing.T) {
	ctx := context.Background()
	groups := &slowGroups{GroupSource: &fakeGroups{groups: map[string]*model.ExamGroup{"grp": scienceGroup()}}}
	grading := NewGradingService(groups, &fakeSink{}, zerolog.Nop())
	svc := NewLiveSessionService(groups, grading, newMemStore(), nil, LiveSessionConfig{
		TickInterval:       time.Hour,
		SnapshotEveryTicks: 5,
	}, zerolog.Nop())

	const opens = 4
	sessions := make([]*LiveSession, opens)
	var wg sync.WaitGroup
	for i := range opens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ls, err := svc.Open(ctx, "grp", 9)
			assert.NoError(t, err)
			sessions[i] = ls
		}(i)
	}
	wg.Wait()
	defer func() { _ = svc.Shutdown(ctx) }()

	assert.Equal(t, int32(1), groups.peak.Load(), "opens of one session must not overlap")
	assert.Equal(t, 1, svc.Active())

	alive := 0
	for _, ls := range sessions {
		require.NotNil(t, ls)
		select {
		case <-ls.Done():
		default:
			alive++
		}
	}
	assert.Equal(t, 1, alive)
}

func TestLiveSession_OpensOfDifferentStudentsOverlap(t *testing.T) {
	ctx := context.Background()
	groups := &slowGroups{GroupSource: &fakeGroups{groups: map[string]*model.ExamGroup{"grp": scienceGroup()}}}
	grading := NewGradingService(groups, &fakeSink{}, zerolog.Nop())
	svc := NewLiveSessionService(groups, grading, newMemStore(), nil, LiveSessionConfig{TickInterval: time.Hour}, zerolog.Nop())

	var wg sync.WaitGroup
	for _, profileID := range []int{1, 2} {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := svc.Open(ctx, "grp", id)
			assert.NoError(t, err)
		}(profileID)
	}
	wg.Wait()
	defer func() { _ = svc.Shutdown(ctx) }()

	assert.Equal(t, 2, svc.Active())
	svc.mu.Lock()
	assert.Empty(t, svc.opening)
	svc.mu.Unlock()
}
