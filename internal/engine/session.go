package engine

import (
	"context"
	"errors"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/rs/zerolog"
)

// Status is the session lifecycle.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusSubmitting Status = "submitting"
	StatusFinished   Status = "finished"
)

// Session errors.
var (
	ErrNoGroup        = errors.New("exam group is required")
	ErrEmptyGroup     = errors.New("exam group has no papers")
	ErrNoSubmitter    = errors.New("submitter is required")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotRunning     = errors.New("session is not running")
	ErrNotLastTab     = errors.New("finish is only allowed on the last tab")
	ErrAnswerLocked   = errors.New("question is not on the active tab")
)

// Options tunes a session.
type Options struct {
	// AllowReview keeps tabs behind the frontier reachable.
	AllowReview bool
	Logger      *zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is one student's run through an exam group. It is not safe for
// concurrent use; Runner serializes access to it.
type Session struct {
	group     *model.ExamGroup
	profileID int
	variant   model.Variant
	tabs      []Tab
	allotted  map[string]int
	// questionTab maps a question id to the index of the tab holding it.
	questionTab map[string]int

	clock   *Clock
	nav     *Navigator
	answers *AnswerStore
	ledger  Ledger

	status    Status
	result    *Result
	submitter Submitter
	now       func() time.Time
	log       zerolog.Logger
}

// NewSession partitions the group, computes durations and creates empty
// answers. The session starts in StatusNotStarted.
func NewSession(group *model.ExamGroup, profileID int, submitter Submitter, opts Options) (*Session, error) {
	if group == nil {
		return nil, ErrNoGroup
	}
	if submitter == nil {
		return nil, ErrNoSubmitter
	}

	tabs := Partition(group.Papers)
	if len(tabs) == 0 {
		return nil, ErrEmptyGroup
	}

	variant := group.Variant
	if !variant.Valid() {
		variant = model.VariantHSA
	}
	allotted := Durations(tabs, variant)

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().
			Str("group_id", group.ID).
			Int("profile_id", profileID).
			Logger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var papers []model.ExamPaper
	questionTab := make(map[string]int)
	for i := range tabs {
		for _, p := range tabs[i].Papers {
			papers = append(papers, p)
			for _, q := range p.Questions {
				questionTab[q.ID] = i
			}
		}
		if allotted[tabs[i].ID] == 0 {
			log.Warn().Str("tab_id", tabs[i].ID).Msg("Tab has no allotted time and will expire on the first tick")
		}
	}

	return &Session{
		group:       group,
		profileID:   profileID,
		variant:     variant,
		tabs:        tabs,
		allotted:    allotted,
		questionTab: questionTab,
		clock:       NewClock(allotted),
		nav:         NewNavigator(len(tabs), opts.AllowReview),
		answers:     NewAnswerStore(papers),
		ledger:      make(Ledger, len(tabs)),
		status:      StatusNotStarted,
		submitter:   submitter,
		now:         now,
		log:         log,
	}, nil
}

// Start begins the countdown of tab 0.
func (s *Session) Start() error {
	if s.status != StatusNotStarted {
		return ErrAlreadyStarted
	}
	s.status = StatusRunning
	s.clock.Start(s.currentTab().ID)
	s.log.Info().Str("tab_id", s.currentTab().ID).Msg("Session started")
	return nil
}

// Tick advances the running countdown by one second. Expiry advances to
// the next tab, or submits on the last one.
func (s *Session) Tick(ctx context.Context) error {
	if s.status != StatusRunning {
		return nil
	}

	id, expired := s.clock.Tick()
	if id == "" {
		// Current tab ran out while no countdown was attached (restored session).
		id, expired = s.currentTab().ID, true
	}
	if !expired {
		return nil
	}

	s.log.Info().Str("tab_id", id).Msg("Tab time expired")
	return s.advance(ctx)
}

// Advance leaves the current tab for the next one. On the last tab it
// submits the session instead.
func (s *Session) Advance(ctx context.Context) error {
	if s.status != StatusRunning {
		return ErrNotRunning
	}
	return s.advance(ctx)
}

// JumpTo displays tab i if navigation allows it. Illegal requests are
// ignored. It reports whether the displayed tab changed.
func (s *Session) JumpTo(i int) bool {
	if s.status != StatusRunning || i < 0 || i >= len(s.tabs) {
		return false
	}
	if i == s.nav.Current() || s.nav.Locked(i) {
		return false
	}
	if s.clock.State(s.tabs[i].ID) == TimerExpired {
		return false
	}

	s.leave()
	s.nav.JumpTo(i)
	s.clock.Start(s.tabs[i].ID)
	s.log.Debug().Int("tab_index", i).Msg("Jumped to tab")
	return true
}

// Finish submits the session from the last tab.
func (s *Session) Finish(ctx context.Context) error {
	if s.status != StatusRunning {
		return ErrNotRunning
	}
	if !s.nav.IsLast() {
		return ErrNotLastTab
	}
	return s.finish(ctx)
}

// SetAnswer records a selection for a flat question on the current tab.
// Multiple-choice questions toggle value; other types replace.
func (s *Session) SetAnswer(questionID, value string) error {
	q, err := s.answerable(questionID)
	if err != nil {
		return err
	}
	return s.answers.SetAnswer(questionID, value, q.Type == model.QuestionTypeMultipleChoice)
}

// SetSubAnswer records a selection for a sub-question of a group question.
func (s *Session) SetSubAnswer(questionID, subQuestionID, value string) error {
	q, err := s.answerable(questionID)
	if err != nil {
		return err
	}
	for _, sq := range q.SubQuestions {
		if sq.ID == subQuestionID {
			return s.answers.SetSubAnswer(questionID, subQuestionID, value, sq.Type == model.QuestionTypeMultipleChoice)
		}
	}
	if !q.IsGroup() {
		return ErrNotGroupQuestion
	}
	return ErrUnknownQuestion
}

// Status returns the lifecycle state.
func (s *Session) Status() Status { return s.status }

// GroupID returns the id of the exam group.
func (s *Session) GroupID() string { return s.group.ID }

// ProfileID returns the id of the student taking the session.
func (s *Session) ProfileID() int { return s.profileID }

// Tabs returns the partitioned tabs.
func (s *Session) Tabs() []Tab { return s.tabs }

// CurrentIndex returns the displayed tab index.
func (s *Session) CurrentIndex() int { return s.nav.Current() }

// Frontier returns the highest tab index reached.
func (s *Session) Frontier() int { return s.nav.Frontier() }

// Remaining returns the seconds left on the displayed tab.
func (s *Session) Remaining() int { return s.clock.Remaining(s.currentTab().ID) }

// Allotted returns the allotted seconds of tabID.
func (s *Session) Allotted(tabID string) int { return s.allotted[tabID] }

// Elapsed returns the recorded time spent on tabID.
func (s *Session) Elapsed(tabID string) int { return s.ledger[tabID] }

// Answer returns a copy of the stored answer for questionID.
func (s *Session) Answer(questionID string) (Answer, bool) { return s.answers.Get(questionID) }

// AnswerStatus reports the navigator status of questionID.
func (s *Session) AnswerStatus(questionID string) AnswerStatus { return s.answers.Status(questionID) }

// Result returns the terminal result, or nil before the session ends.
func (s *Session) Result() *Result { return s.result }

func (s *Session) currentTab() *Tab {
	return &s.tabs[s.nav.Current()]
}

func (s *Session) answerable(questionID string) (*model.Question, error) {
	if s.status != StatusRunning {
		return nil, ErrNotRunning
	}
	q, ok := s.answers.Question(questionID)
	if !ok {
		return nil, ErrUnknownQuestion
	}
	idx := s.questionTab[questionID]
	if idx != s.nav.Current() || s.clock.State(s.tabs[idx].ID) == TimerExpired {
		return nil, ErrAnswerLocked
	}
	return q, nil
}

// leave freezes the current tab and records its elapsed time.
func (s *Session) leave() {
	id := s.currentTab().ID
	s.clock.Stop()
	s.ledger.Record(id, s.clock.Elapsed(id))
}

func (s *Session) advance(ctx context.Context) error {
	s.leave()
	for {
		if !s.nav.Advance() {
			return s.finish(ctx)
		}
		if s.clock.Start(s.currentTab().ID) {
			s.log.Info().
				Int("tab_index", s.nav.Current()).
				Str("tab_id", s.currentTab().ID).
				Msg("Advanced to tab")
			return nil
		}
		// Already expired (reachable only with review enabled); skip it.
	}
}

func (s *Session) finish(ctx context.Context) error {
	s.leave()
	s.status = StatusSubmitting

	sub := BuildSubmission(s.group.ID, s.profileID, s.tabs, s.answers, s.ledger)
	totalTime := s.ledger.Total()
	maxPoint := s.group.MaxPoint()

	res, err := s.submitter.Submit(ctx, sub)
	if err != nil {
		s.log.Error().Err(err).Msg("Submission failed")
		s.result = &Result{
			Scored:    false,
			MaxPoint:  maxPoint,
			TotalTime: totalTime,
			Error:     err.Error(),
		}
	} else {
		r := Summarize(res, maxPoint, totalTime)
		s.result = &r
		s.log.Info().
			Float64("total_point", r.TotalPoint).
			Float64("max_point", r.MaxPoint).
			Int("total_time", r.TotalTime).
			Msg("Session submitted")
	}

	s.status = StatusFinished
	return nil
}

// Variant returns the program variant used for durations.
func (s *Session) Variant() model.Variant { return s.variant }
