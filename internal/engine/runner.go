package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/rs/zerolog"
)

// ErrRunnerStopped is returned by Do once the event loop has exited.
var ErrRunnerStopped = errors.New("session runner stopped")

// CommandKind enumerates user actions.
type CommandKind string

const (
	CommandStart     CommandKind = "start"
	CommandAnswer    CommandKind = "answer"
	CommandSubAnswer CommandKind = "sub_answer"
	CommandJump      CommandKind = "jump"
	CommandAdvance   CommandKind = "advance"
	CommandFinish    CommandKind = "finish"
	CommandView      CommandKind = "view"
)

// Command is a user action delivered to the runner.
type Command struct {
	Kind          CommandKind
	QuestionID    string
	SubQuestionID string
	Value         string
	Tab           int
}

// EventType enumerates what the runner publishes.
type EventType string

const (
	EventTick       EventType = "tick"
	EventTabChanged EventType = "tab_changed"
	EventFinished   EventType = "finished"
)

// Event is published on every tick and transition.
type Event struct {
	Type      EventType
	TabIndex  int
	Remaining int
	// View is set for transitions, nil for plain ticks.
	View *View
}

// CheckpointFunc persists a snapshot.
type CheckpointFunc func(ctx context.Context, snap Snapshot) error

// AnswerObserver is told about every accepted answer change. questionID is
// the flattened id, composite for sub-questions. It runs on the runner
// goroutine and must not block.
type AnswerObserver func(ctx context.Context, questionID string, selected []string)

type request struct {
	cmd   Command
	reply chan reply
}

type reply struct {
	view View
	err  error
}

// Runner is the single-threaded event loop of a session. One goroutine
// owns the session: commands and ticks are handled one at a time, and the
// ticker is reset on every tab switch so exactly one countdown runs.
type Runner struct {
	sess     *Session
	interval time.Duration
	cmds     chan request
	events   chan Event
	done     chan struct{}
	final    View

	checkpoint      CheckpointFunc
	checkpointEvery int
	onAnswer        AnswerObserver

	log zerolog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTickInterval sets the wall-clock length of one second of countdown.
func WithTickInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithCheckpoint saves a snapshot after every command and every n ticks.
func WithCheckpoint(fn CheckpointFunc, everyTicks int) RunnerOption {
	return func(r *Runner) {
		r.checkpoint = fn
		r.checkpointEvery = everyTicks
	}
}

// WithAnswerObserver registers fn for accepted answer changes.
func WithAnswerObserver(fn AnswerObserver) RunnerOption {
	return func(r *Runner) {
		r.onAnswer = fn
	}
}

// WithRunnerLogger sets the runner logger.
func WithRunnerLogger(log zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log.With().Str("component", "engine_runner").Logger()
	}
}

// NewRunner wraps sess. Call Run in its own goroutine.
func NewRunner(sess *Session, opts ...RunnerOption) *Runner {
	r := &Runner{
		sess:     sess,
		interval: time.Second,
		cmds:     make(chan request),
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Events streams ticks and transitions. It is closed when Run returns.
func (r *Runner) Events() <-chan Event { return r.events }

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Final returns the last view. Only valid after Done is closed.
func (r *Runner) Final() View { return r.final }

// Do delivers a command and waits for the resulting view.
func (r *Runner) Do(ctx context.Context, cmd Command) (View, error) {
	req := request{cmd: cmd, reply: make(chan reply, 1)}
	select {
	case r.cmds <- req:
	case <-r.done:
		return r.final, ErrRunnerStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}

	select {
	case rep := <-req.reply:
		return rep.view, rep.err
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Run drives the session until it finishes or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.events)
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		if r.sess.Status() == StatusFinished {
			r.final = r.sess.View()
			r.save(ctx)
			r.log.Info().Msg("Session finished, runner exiting")
			return
		}

		select {
		case <-ctx.Done():
			r.final = r.sess.View()
			// Persist with a fresh context; ctx is already cancelled.
			r.save(context.Background())
			r.log.Debug().Msg("Runner cancelled")
			return

		case req := <-r.cmds:
			before := r.mark()
			err := r.apply(ctx, req.cmd)
			if err == nil {
				r.observeAnswer(ctx, req.cmd)
			}
			r.afterTransition(ctx, before, ticker)
			if req.cmd.Kind != CommandView {
				r.save(ctx)
			}
			req.reply <- reply{view: r.sess.View(), err: err}

		case <-ticker.C:
			if r.sess.Status() != StatusRunning {
				continue
			}
			before := r.mark()
			if err := r.sess.Tick(ctx); err != nil {
				r.log.Error().Err(err).Msg("Tick failed")
			}
			ticks++
			r.emit(ctx, Event{
				Type:      EventTick,
				TabIndex:  before.index,
				Remaining: r.sess.clock.Remaining(r.sess.tabs[before.index].ID),
			}, false)
			changed := r.afterTransition(ctx, before, ticker)
			if changed || (r.checkpointEvery > 0 && ticks%r.checkpointEvery == 0) {
				r.save(ctx)
			}
		}
	}
}

type marker struct {
	index  int
	status Status
}

func (r *Runner) mark() marker {
	return marker{index: r.sess.CurrentIndex(), status: r.sess.Status()}
}

func (r *Runner) apply(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CommandStart:
		return r.sess.Start()
	case CommandAnswer:
		return r.sess.SetAnswer(cmd.QuestionID, cmd.Value)
	case CommandSubAnswer:
		return r.sess.SetSubAnswer(cmd.QuestionID, cmd.SubQuestionID, cmd.Value)
	case CommandJump:
		r.sess.JumpTo(cmd.Tab)
		return nil
	case CommandAdvance:
		return r.sess.Advance(ctx)
	case CommandFinish:
		return r.sess.Finish(ctx)
	case CommandView:
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Kind)
	}
}

func (r *Runner) observeAnswer(ctx context.Context, cmd Command) {
	if r.onAnswer == nil {
		return
	}
	switch cmd.Kind {
	case CommandAnswer:
		a, _ := r.sess.Answer(cmd.QuestionID)
		r.onAnswer(ctx, cmd.QuestionID, a.Selected)
	case CommandSubAnswer:
		a, _ := r.sess.Answer(cmd.QuestionID)
		r.onAnswer(ctx, model.CompositeQuestionID(cmd.QuestionID, cmd.SubQuestionID), nonNil(a.Sub[cmd.SubQuestionID]))
	}
}

// afterTransition resets the ticker and publishes an event when the
// displayed tab or the status changed. It reports whether anything changed.
func (r *Runner) afterTransition(ctx context.Context, before marker, ticker *time.Ticker) bool {
	after := r.mark()
	if after == before {
		return false
	}

	if after.status == StatusFinished {
		view := r.sess.View()
		r.emit(ctx, Event{Type: EventFinished, TabIndex: after.index, View: &view}, true)
		return true
	}

	ticker.Reset(r.interval)
	view := r.sess.View()
	r.emit(ctx, Event{
		Type:      EventTabChanged,
		TabIndex:  after.index,
		Remaining: view.Remaining,
		View:      &view,
	}, true)
	return true
}

// emit publishes ev. Ticks are dropped when the consumer lags; transitions
// wait for room unless ctx ends.
func (r *Runner) emit(ctx context.Context, ev Event, mustDeliver bool) {
	if !mustDeliver {
		select {
		case r.events <- ev:
		default:
		}
		return
	}
	select {
	case r.events <- ev:
	case <-ctx.Done():
	}
}

func (r *Runner) save(ctx context.Context) {
	if r.checkpoint == nil {
		return
	}
	if err := r.checkpoint(ctx, r.sess.Snapshot()); err != nil {
		r.log.Warn().Err(err).Msg("Checkpoint failed")
	}
}
