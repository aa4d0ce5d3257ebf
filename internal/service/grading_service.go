package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/grading"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/metrics"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Submission errors.
var (
	ErrEmptySubmission = errors.New("submission has no exams")
	ErrUnknownPaper    = errors.New("exam paper does not belong to group")
	ErrDuplicatePaper  = errors.New("exam paper submitted twice")
	ErrProfileMismatch = errors.New("submission profile does not match caller")

	// ErrSessionInProgress rejects a direct submit for an exam the student
	// is taking, or has taken, through a timed live session.
	ErrSessionInProgress = errors.New("exam is bound to a live session")
)

// GroupSource resolves a group with its answer keys.
type GroupSource interface {
	GetFull(ctx context.Context, groupID string) (*model.ExamGroup, error)
}

// SessionTracker reports whether a student has a live or saved session.
type SessionTracker interface {
	HasSession(ctx context.Context, groupID string, profileID int) (bool, error)
}

// ResultSink receives graded results for asynchronous persistence.
type ResultSink interface {
	EnqueueResult(ctx context.Context, res model.GroupResult) error
}

// GradingService grades aggregate group submissions. It satisfies
// engine.Submitter so live sessions submit through it directly.
type GradingService struct {
	groups GroupSource
	sink   ResultSink

	// sessions is consulted by SubmitAs only; live sessions call Submit.
	sessions SessionTracker
	grader   *grading.Grader
	now      func() time.Time
	log      zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(groups GroupSource, sink ResultSink, log zerolog.Logger) *GradingService {
	return &GradingService{
		groups: groups,
		sink:   sink,
		grader: grading.NewGrader(),
		now:    time.Now,
		log:    log.With().Str("component", "grading_service").Logger(),
	}
}

// Submit grades every paper of sub and queues the result for persistence.
func (s *GradingService) Submit(ctx context.Context, sub model.GroupSubmission) (*model.SubmitResult, error) {
	timer := prometheus.NewTimer(metrics.GradingDuration)
	defer timer.ObserveDuration()

	res, result, err := s.grade(ctx, sub)
	if err != nil {
		metrics.Submissions.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	if err := s.sink.EnqueueResult(ctx, *result); err != nil {
		metrics.Submissions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("enqueue result: %w", err)
	}

	metrics.Submissions.WithLabelValues(metrics.OutcomeScored).Inc()
	s.log.Info().
		Str("group_id", sub.GroupID).
		Int("profile_id", result.ProfileID).
		Float64("total_point", res.TotalPoint).
		Msg("Group submission graded")
	return res, nil
}

// GuardLiveSessions makes SubmitAs refuse exams that have a live session, so
// the client-reported times of a direct submit cannot replace the server clock.
func (s *GradingService) GuardLiveSessions(t SessionTracker) {
	s.sessions = t
}

// SubmitAs grades sub on behalf of profileID. Every paper must carry the
// caller's profile id.
func (s *GradingService) SubmitAs(ctx context.Context, profileID int, sub model.GroupSubmission) (*model.SubmitResult, error) {
	for _, e := range sub.Exams {
		if e.ProfileID != profileID {
			return nil, ErrProfileMismatch
		}
	}
	if s.sessions != nil {
		live, err := s.sessions.HasSession(ctx, sub.GroupID, profileID)
		if err != nil {
			return nil, fmt.Errorf("check live session: %w", err)
		}
		if live {
			metrics.Submissions.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, ErrSessionInProgress
		}
	}
	return s.Submit(ctx, sub)
}

func (s *GradingService) grade(ctx context.Context, sub model.GroupSubmission) (*model.SubmitResult, *model.GroupResult, error) {
	if len(sub.Exams) == 0 {
		return nil, nil, ErrEmptySubmission
	}

	group, err := s.groups.GetFull(ctx, sub.GroupID)
	if err != nil {
		return nil, nil, err
	}

	papers := make(map[string]*model.ExamPaper, len(group.Papers))
	for i := range group.Papers {
		papers[group.Papers[i].ID] = &group.Papers[i]
	}

	profileID := sub.Exams[0].ProfileID
	out := &model.SubmitResult{Submissions: make([]model.PaperResult, 0, len(sub.Exams))}
	result := &model.GroupResult{
		GroupID:     group.ID,
		ProfileID:   profileID,
		MaxPoint:    group.MaxPoint(),
		Answers:     sub.Exams,
		SubmittedAt: s.now(),
	}
	elapsed := make(map[string]int, len(sub.Exams))

	for _, exam := range sub.Exams {
		if exam.ProfileID != profileID {
			return nil, nil, ErrProfileMismatch
		}
		paper, ok := papers[exam.ExamID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPaper, exam.ExamID)
		}
		if _, dup := elapsed[exam.ExamID]; dup {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicatePaper, exam.ExamID)
		}
		elapsed[exam.ExamID] = exam.TotalTime

		pr := s.grader.GradePaper(paper, exam.Answers)
		pr.TotalTime = exam.TotalTime
		out.Submissions = append(out.Submissions, pr)
		out.TotalPoint += pr.Point
	}

	// Papers sharing a tab report the same elapsed time, so count each tab once.
	for _, tab := range engine.Partition(group.Papers) {
		longest := 0
		for _, id := range tab.PaperIDs() {
			longest = max(longest, elapsed[id])
		}
		result.TotalTime += longest
	}

	result.TotalPoint = out.TotalPoint
	result.Papers = out.Submissions
	return out, result, nil
}
