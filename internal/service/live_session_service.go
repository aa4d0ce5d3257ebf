package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/logger"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/metrics"
	"github.com/rs/zerolog"
)

// SnapshotStore persists live session snapshots.
type SnapshotStore interface {
	Load(ctx context.Context, groupID string, profileID int) (*engine.Snapshot, error)
	Save(ctx context.Context, snap engine.Snapshot) error
}

// Autosaver receives every accepted answer change.
type Autosaver interface {
	Autosave(ctx context.Context, p AnswerPayload) error
}

// LiveSessionConfig tunes the engine runners.
type LiveSessionConfig struct {
	TickInterval       time.Duration
	AllowReview        bool
	SnapshotEveryTicks int
}

// LiveSessionService owns the running engine sessions, at most one per
// student and group. Opening a session that is already live takes it over.
type LiveSessionService struct {
	groups    GroupSource
	submitter engine.Submitter
	store     SnapshotStore
	autosave  Autosaver
	cfg       LiveSessionConfig
	root      zerolog.Logger
	log       zerolog.Logger

	mu      sync.Mutex
	live    map[string]*LiveSession
	opening map[string]*keyLock
}

// keyLock serializes Open calls for one (group, profile).
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLiveSessionService creates a new LiveSessionService.
func NewLiveSessionService(
	groups GroupSource,
	submitter engine.Submitter,
	store SnapshotStore,
	autosave Autosaver,
	cfg LiveSessionConfig,
	log zerolog.Logger,
) *LiveSessionService {
	return &LiveSessionService{
		groups:    groups,
		submitter: submitter,
		store:     store,
		autosave:  autosave,
		cfg:       cfg,
		root:      log,
		log:       log.With().Str("component", "live_session_service").Logger(),
		live:      make(map[string]*LiveSession),
		opening:   make(map[string]*keyLock),
	}
}

// LiveSession is a handle on a running engine session.
type LiveSession struct {
	GroupID   string
	ProfileID int

	runner *engine.Runner
	cancel context.CancelFunc
}

// Do forwards a command to the session's event loop.
func (l *LiveSession) Do(ctx context.Context, cmd engine.Command) (engine.View, error) {
	return l.runner.Do(ctx, cmd)
}

// Events streams engine events until the session stops.
func (l *LiveSession) Events() <-chan engine.Event { return l.runner.Events() }

// Done is closed once the event loop has exited.
func (l *LiveSession) Done() <-chan struct{} { return l.runner.Done() }

// Final returns the last view. Only valid after Done is closed.
func (l *LiveSession) Final() engine.View { return l.runner.Final() }

// Close stops the event loop and waits for its final checkpoint.
func (l *LiveSession) Close() {
	l.cancel()
	<-l.runner.Done()
}

// Open starts or resumes the session of profileID in groupID. Concurrent
// opens of the same session run one after another, so each one takes over
// the session registered by the previous one.
func (s *LiveSessionService) Open(ctx context.Context, groupID string, profileID int) (*LiveSession, error) {
	key := liveKey(groupID, profileID)
	unlock := s.lockKey(key)
	defer unlock()

	s.mu.Lock()
	prev := s.live[key]
	delete(s.live, key)
	s.mu.Unlock()
	if prev != nil {
		s.log.Info().Str("group_id", groupID).Int("profile_id", profileID).Msg("Taking over live session")
		prev.Close()
	}

	group, err := s.groups.GetFull(ctx, groupID)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Load(ctx, groupID, profileID)
	if err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID).Int("profile_id", profileID).Msg("Snapshot load failed, starting fresh")
		snap = nil
	}

	sessLog := s.root.With().Str("component", "engine_session").Logger()
	opts := engine.Options{AllowReview: s.cfg.AllowReview, Logger: &sessLog}
	sess, err := engine.Restore(group, profileID, s.submitter, opts, snap)
	if errors.Is(err, engine.ErrSnapshotMismatch) {
		sess, err = engine.NewSession(group, profileID, s.submitter, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	runner := engine.NewRunner(sess,
		engine.WithTickInterval(s.cfg.TickInterval),
		engine.WithCheckpoint(s.store.Save, s.cfg.SnapshotEveryTicks),
		engine.WithAnswerObserver(s.observer(groupID, profileID)),
		engine.WithRunnerLogger(logger.ForSession(s.root, groupID, profileID)),
	)

	runCtx, cancel := context.WithCancel(context.Background())
	ls := &LiveSession{GroupID: groupID, ProfileID: profileID, runner: runner, cancel: cancel}

	s.mu.Lock()
	s.live[key] = ls
	s.mu.Unlock()

	metrics.LiveSessions.Inc()
	go func() {
		defer metrics.LiveSessions.Dec()
		runner.Run(runCtx)
		s.forget(key, ls)
	}()

	return ls, nil
}

// Shutdown stops every live session so each writes its final checkpoint.
func (s *LiveSessionService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*LiveSession, 0, len(s.live))
	for key, ls := range s.live {
		sessions = append(sessions, ls)
		delete(s.live, key)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, ls := range sessions {
		wg.Add(1)
		go func(ls *LiveSession) {
			defer wg.Done()
			ls.Close()
		}(ls)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Int("count", len(sessions)).Msg("Live sessions stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasSession reports whether profileID has a running session in groupID or a
// saved snapshot of one, finished or not.
func (s *LiveSessionService) HasSession(ctx context.Context, groupID string, profileID int) (bool, error) {
	s.mu.Lock()
	_, live := s.live[liveKey(groupID, profileID)]
	s.mu.Unlock()
	if live {
		return true, nil
	}

	snap, err := s.store.Load(ctx, groupID, profileID)
	if err != nil {
		return false, err
	}
	return snap != nil, nil
}

// Active reports how many sessions are running.
func (s *LiveSessionService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *LiveSessionService) observer(groupID string, profileID int) engine.AnswerObserver {
	return func(ctx context.Context, questionID string, selected []string) {
		if s.autosave == nil {
			return
		}
		err := s.autosave.Autosave(ctx, AnswerPayload{
			GroupID:   groupID,
			ProfileID: profileID,
			QID:       questionID,
			Selected:  selected,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("q_id", questionID).Msg("Autosave failed")
		}
	}
}

func (s *LiveSessionService) lockKey(key string) func() {
	s.mu.Lock()
	kl := s.opening[key]
	if kl == nil {
		kl = &keyLock{}
		s.opening[key] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		s.mu.Lock()
		if kl.refs--; kl.refs == 0 {
			delete(s.opening, key)
		}
		s.mu.Unlock()
	}
}

func (s *LiveSessionService) forget(key string, ls *LiveSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live[key] == ls {
		delete(s.live, key)
	}
}

func liveKey(groupID string, profileID int) string {
	return fmt.Sprintf("%s:%d", groupID, profileID)
}
