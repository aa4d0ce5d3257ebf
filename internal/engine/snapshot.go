package engine

import (
	"errors"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

// ErrSnapshotMismatch is returned when a snapshot belongs to another
// group or student.
var ErrSnapshotMismatch = errors.New("snapshot does not match session")

// errSubmissionInterrupted marks sessions saved while a submission was in flight.
const errSubmissionInterrupted = "submission interrupted"

// Snapshot is the serializable state of a session, used to resume after a
// reconnect.
type Snapshot struct {
	GroupID   string                   `json:"group_id"`
	ProfileID int                      `json:"profile_id"`
	Status    Status                   `json:"status"`
	Current   int                      `json:"current"`
	Frontier  int                      `json:"frontier"`
	Timers    map[string]TimerSnapshot `json:"timers"`
	Ledger    map[string]int           `json:"ledger"`
	Answers   map[string]Answer        `json:"answers"`
	Result    *Result                  `json:"result,omitempty"`
	SavedAt   time.Time                `json:"saved_at"`
}

// Snapshot captures the current state.
func (s *Session) Snapshot() Snapshot {
	ledger := make(map[string]int, len(s.ledger))
	for k, v := range s.ledger {
		ledger[k] = v
	}
	return Snapshot{
		GroupID:   s.group.ID,
		ProfileID: s.profileID,
		Status:    s.status,
		Current:   s.nav.Current(),
		Frontier:  s.nav.Frontier(),
		Timers:    s.clock.snapshot(),
		Ledger:    ledger,
		Answers:   s.answers.snapshot(),
		Result:    s.result,
		SavedAt:   s.now(),
	}
}

// Restore rebuilds a session from a snapshot. Wall-clock time that passed
// since the snapshot was saved is charged to the tab that was running.
func Restore(group *model.ExamGroup, profileID int, submitter Submitter, opts Options, snap *Snapshot) (*Session, error) {
	s, err := NewSession(group, profileID, submitter, opts)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return s, nil
	}
	if snap.GroupID != group.ID || snap.ProfileID != profileID {
		return nil, ErrSnapshotMismatch
	}

	s.answers.restore(snap.Answers)
	for id, secs := range snap.Ledger {
		s.ledger.Record(id, secs)
	}
	s.nav.restore(snap.Current, snap.Frontier)

	timers := snap.Timers
	if snap.Status == StatusRunning && !snap.SavedAt.IsZero() {
		if away := int(s.now().Sub(snap.SavedAt) / time.Second); away > 0 {
			timers = chargeAway(timers, s.currentTab().ID, away)
		}
	}
	s.clock.restore(timers)

	switch snap.Status {
	case StatusRunning:
		s.status = StatusRunning
		// An expired current tab has no countdown; the next Tick advances it.
		s.clock.Start(s.currentTab().ID)
	case StatusFinished:
		s.status = StatusFinished
		s.result = snap.Result
		if s.result == nil {
			s.result = &Result{MaxPoint: group.MaxPoint(), TotalTime: s.ledger.Total()}
		}
	case StatusSubmitting:
		s.status = StatusFinished
		s.result = &Result{
			MaxPoint:  group.MaxPoint(),
			TotalTime: s.ledger.Total(),
			Error:     errSubmissionInterrupted,
		}
	}

	s.log.Info().
		Str("status", string(s.status)).
		Int("tab_index", s.nav.Current()).
		Msg("Session restored")
	return s, nil
}

func chargeAway(timers map[string]TimerSnapshot, tabID string, away int) map[string]TimerSnapshot {
	t, ok := timers[tabID]
	if !ok || t.State == TimerExpired {
		return timers
	}
	out := make(map[string]TimerSnapshot, len(timers))
	for k, v := range timers {
		out[k] = v
	}
	t.Remaining -= away
	if t.Remaining <= 0 {
		t.Remaining = 0
		t.State = TimerExpired
	}
	out[tabID] = t
	return out
}
