package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/logger"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/metrics"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/middleware"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/response"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	ws "github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/websocket"
	"github.com/rs/zerolog"
)

const maxMessageSize = 4096

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SessionOpener starts or resumes a live engine session.
type SessionOpener interface {
	Open(ctx context.Context, groupID string, profileID int) (*service.LiveSession, error)
}

// WSHandler streams a live exam session over WebSocket.
type WSHandler struct {
	sessions SessionOpener
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions SessionOpener, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/student/exam-groups/:group_id/session?token=...
// Every client action is answered with a state frame; ticks and tab
// transitions are pushed as they happen.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	groupID, ok := groupParam(c)
	if !ok {
		return
	}

	live, err := h.sessions.Open(c.Request.Context(), groupID, claims.ProfileID)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrGroupNotFound)
			return
		}
		h.log.Error().Err(err).Str("group_id", groupID).Msg("Open session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	// Disconnecting pauses the countdown; the last checkpoint is kept for resume.
	defer live.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := logger.ForSession(h.log, groupID, claims.ProfileID)
	wsLog.Info().Msg("Student connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Initial state so a resuming client can redraw immediately. Written
	// before the writer starts so a finished session still delivers it.
	view, err := live.Do(ctx, engine.Command{Kind: engine.CommandView})
	if err != nil && !errors.Is(err, engine.ErrRunnerStopped) {
		wsLog.Error().Err(err).Msg("Initial state failed")
		return
	}
	if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: &view}); err != nil {
		return
	}

	out := make(chan interface{}, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, live, out, wsLog)
	}()

	send := func(v interface{}) bool {
		select {
		case out <- v:
			return true
		case <-writerDone:
			return false
		}
	}

	ws.PrepareRead(conn, maxMessageSize)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		if !send(h.handleMessage(ctx, live, raw, wsLog)) {
			break
		}
	}

	cancel()
	<-writerDone
	wsLog.Info().Msg("Student disconnected")
}

// handleMessage runs one client frame and returns the reply frame.
func (h *WSHandler) handleMessage(ctx context.Context, live *service.LiveSession, raw []byte, wsLog zerolog.Logger) interface{} {
	req, err := ws.ParseRequest(raw)
	if err != nil {
		return wsError(response.ErrInvalidPayload)
	}
	if req.Action == ws.ActionPing {
		return ws.PongResponse{Event: ws.EventPong}
	}

	cmd, err := req.Command()
	if err != nil {
		wsLog.Debug().Err(err).Str("action", string(req.Action)).Msg("Rejected action")
		return wsError(response.ErrInvalidPayload)
	}

	view, err := live.Do(ctx, cmd)
	switch {
	case err == nil, errors.Is(err, engine.ErrAlreadyStarted):
		return ws.StateResponse{Event: ws.EventState, State: &view}
	case errors.Is(err, engine.ErrAnswerLocked):
		return wsError(response.ErrAnswerLocked)
	case errors.Is(err, engine.ErrUnknownQuestion),
		errors.Is(err, engine.ErrGroupQuestion),
		errors.Is(err, engine.ErrNotGroupQuestion):
		return wsError(response.ErrUnknownQuestion)
	case errors.Is(err, engine.ErrNotLastTab):
		return wsError(response.ErrNotLastTab)
	case errors.Is(err, engine.ErrNotRunning), errors.Is(err, engine.ErrRunnerStopped):
		return wsError(response.ErrSessionNotRunning)
	default:
		wsLog.Error().Err(err).Str("action", string(req.Action)).Msg("Command failed")
		return wsError(response.ErrInternal)
	}
}

// writeLoop is the only writer on conn. It returns once the session stops
// or ctx ends, closing the socket so the reader unblocks.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, live *service.LiveSession, out <-chan interface{}, wsLog zerolog.Logger) {
	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()
	events := live.Events()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-out:
			if err := ws.WriteTyped(conn, msg); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				conn.Close()
				return
			}

		case ev, ok := <-events:
			if !ok {
				h.closeStopped(conn, live, wsLog)
				return
			}
			metrics.SessionEvents.WithLabelValues(string(ev.Type)).Inc()
			if err := ws.WriteTyped(conn, ws.FromEngine(ev)); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				conn.Close()
				return
			}

		case <-ping.C:
			if err := ws.WritePing(conn); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// closeStopped ends the connection once the runner has exited, either
// because the exam finished or another connection took the session over.
func (h *WSHandler) closeStopped(conn *websocket.Conn, live *service.LiveSession, wsLog zerolog.Logger) {
	final := live.Final()
	closeCode, reason := websocket.CloseNormalClosure, "session finished"
	if final.Status != engine.StatusFinished {
		wsLog.Info().Msg("Session stopped elsewhere")
		_ = ws.WriteTyped(conn, wsError(response.ErrSessionNotRunning))
		closeCode, reason = websocket.ClosePolicyViolation, "session taken over"
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(closeCode, reason),
		time.Now().Add(ws.WriteWait))
	conn.Close()
}

func wsError(code response.ErrCode) ws.ErrorResponse {
	return ws.WriteError(string(code), response.GetMessage(code))
}
