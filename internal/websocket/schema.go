package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart     Action = "start"
	ActionAnswer    Action = "answer"
	ActionSubAnswer Action = "sub_answer"
	ActionJump      Action = "jump"
	ActionAdvance   Action = "advance"
	ActionFinish    Action = "finish"
	ActionState     Action = "state"
	ActionPing      Action = "ping"
)

// ErrUnknownAction is returned for actions the server does not handle.
var ErrUnknownAction = errors.New("unknown action")

// Request is the single client message shape. Fields not used by an
// action are ignored.
type Request struct {
	Action Action `json:"action"`
	QID    string `json:"q_id,omitempty"`
	SubID  string `json:"sub_id,omitempty"`
	Value  string `json:"value,omitempty"`
	Tab    *int   `json:"tab,omitempty"`
}

// ParseRequest decodes a raw client frame.
func ParseRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	if req.Action == "" {
		return req, ErrUnknownAction
	}
	return req, nil
}

// Command maps a request to an engine command. Ping has no command.
func (r Request) Command() (engine.Command, error) {
	switch r.Action {
	case ActionStart:
		return engine.Command{Kind: engine.CommandStart}, nil
	case ActionAnswer:
		if r.QID == "" {
			return engine.Command{}, errors.New("q_id is required")
		}
		return engine.Command{Kind: engine.CommandAnswer, QuestionID: r.QID, Value: r.Value}, nil
	case ActionSubAnswer:
		if r.QID == "" || r.SubID == "" {
			return engine.Command{}, errors.New("q_id and sub_id are required")
		}
		return engine.Command{
			Kind:          engine.CommandSubAnswer,
			QuestionID:    r.QID,
			SubQuestionID: r.SubID,
			Value:         r.Value,
		}, nil
	case ActionJump:
		if r.Tab == nil {
			return engine.Command{}, errors.New("tab is required")
		}
		return engine.Command{Kind: engine.CommandJump, Tab: *r.Tab}, nil
	case ActionAdvance:
		return engine.Command{Kind: engine.CommandAdvance}, nil
	case ActionFinish:
		return engine.Command{Kind: engine.CommandFinish}, nil
	case ActionState:
		return engine.Command{Kind: engine.CommandView}, nil
	default:
		return engine.Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState      Event = "state"
	EventTick       Event = "tick"
	EventTabChanged Event = "tab_changed"
	EventFinished   Event = "finished"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// StateResponse carries the full view. It answers every command.
type StateResponse struct {
	Event Event        `json:"event"`
	State *engine.View `json:"state"`
}

// TickResponse is the lightweight per-second countdown frame.
type TickResponse struct {
	Event     Event `json:"event"`
	Tab       int   `json:"tab"`
	Remaining int   `json:"remaining"`
}

// TransitionResponse is sent on tab changes and when the session finishes.
type TransitionResponse struct {
	Event     Event          `json:"event"`
	Tab       int            `json:"tab"`
	Remaining int            `json:"remaining"`
	State     *engine.View   `json:"state,omitempty"`
	Result    *engine.Result `json:"result,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// FromEngine converts a runner event into its wire frame.
func FromEngine(ev engine.Event) interface{} {
	switch ev.Type {
	case engine.EventTick:
		return TickResponse{Event: EventTick, Tab: ev.TabIndex, Remaining: ev.Remaining}
	case engine.EventFinished:
		out := TransitionResponse{Event: EventFinished, Tab: ev.TabIndex, State: ev.View}
		if ev.View != nil {
			out.Result = ev.View.Result
		}
		return out
	default:
		return TransitionResponse{Event: EventTabChanged, Tab: ev.TabIndex, Remaining: ev.Remaining, State: ev.View}
	}
}
