package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Event  string         `json:"event"`
	Code   string         `json:"code"`
	State  *engine.View   `json:"state"`
	Result *engine.Result `json:"result"`
}

type wsFixture struct {
	server    *httptest.Server
	live      *service.LiveSessionService
	submitter *fakeSubmitter
	store     *memStore
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	f := &wsFixture{submitter: &fakeSubmitter{}, store: newMemStore()}
	f.live = service.NewLiveSessionService(
		&fakeGroups{group: mathGroup()},
		f.submitter,
		f.store,
		nil,
		// No ticks during the test; transitions come from commands only.
		service.LiveSessionConfig{TickInterval: time.Hour},
		zerolog.Nop(),
	)

	r := gin.New()
	r.GET("/ws/:group_id", asStudent(7), NewWSHandler(f.live, zerolog.Nop(), nil).SessionStream)
	f.server = httptest.NewServer(r)
	t.Cleanup(func() {
		f.server.Close()
		_ = f.live.Shutdown(context.Background())
	})
	return f
}

func (f *wsFixture) dial(t *testing.T, groupID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/" + groupID
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var fr frame
	require.NoError(t, conn.ReadJSON(&fr))
	return fr
}

// readUntil skips frames until one with the given event arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	for i := 0; i < 10; i++ {
		fr := readFrame(t, conn)
		if fr.Event == event {
			return fr
		}
	}
	t.Fatalf("no %q frame", event)
	return frame{}
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func TestSessionStream_FullFlow(t *testing.T) {
	f := newWSFixture(t)
	conn, _, err := f.dial(t, testGroupID)
	require.NoError(t, err)
	defer conn.Close()

	initial := readFrame(t, conn)
	require.Equal(t, "state", initial.Event)
	assert.Equal(t, engine.StatusNotStarted, initial.State.Status)

	send(t, conn, `{"action":"start"}`)
	started := readUntil(t, conn, "state")
	assert.Equal(t, engine.StatusRunning, started.State.Status)
	assert.Equal(t, 3600, started.State.Remaining)

	send(t, conn, `{"action":"ping"}`)
	readUntil(t, conn, "pong")

	send(t, conn, `{"action":"answer","q_id":"q1","value":"A"}`)
	answered := readUntil(t, conn, "state")
	assert.True(t, answered.State.Questions["q1"])
	assert.False(t, answered.State.Questions["q2"])

	send(t, conn, `{"action":"answer","q_id":"nope","value":"A"}`)
	assert.Equal(t, "UNKNOWN_QUESTION", readUntil(t, conn, "error").Code)

	send(t, conn, `{"action":"cheat"}`)
	assert.Equal(t, "INVALID_PAYLOAD", readUntil(t, conn, "error").Code)

	send(t, conn, `{"action":"finish"}`)
	fin := readUntil(t, conn, "finished")
	require.NotNil(t, fin.Result)
	assert.True(t, fin.Result.Scored)
	assert.Equal(t, 2.0, fin.Result.TotalPoint)
	assert.Equal(t, 50.0, fin.Result.Percentage)

	f.submitter.mu.Lock()
	require.Len(t, f.submitter.calls, 1)
	assert.Equal(t, "q1", f.submitter.calls[0].Exams[0].Answers[0].QuestionID)
	f.submitter.mu.Unlock()
}

func TestSessionStream_ResumeAfterFinish(t *testing.T) {
	f := newWSFixture(t)
	conn, _, err := f.dial(t, testGroupID)
	require.NoError(t, err)
	readFrame(t, conn)
	send(t, conn, `{"action":"start"}`)
	send(t, conn, `{"action":"finish"}`)
	readUntil(t, conn, "finished")
	conn.Close()

	// A finished session is replayed, not graded again.
	conn, _, err = f.dial(t, testGroupID)
	require.NoError(t, err)
	defer conn.Close()
	st := readFrame(t, conn)
	require.Equal(t, "state", st.Event)
	assert.Equal(t, engine.StatusFinished, st.State.Status)
	require.NotNil(t, st.State.Result)

	f.submitter.mu.Lock()
	assert.Len(t, f.submitter.calls, 1)
	f.submitter.mu.Unlock()
}

func TestSessionStream_TakeOver(t *testing.T) {
	f := newWSFixture(t)
	first, _, err := f.dial(t, testGroupID)
	require.NoError(t, err)
	defer first.Close()
	readFrame(t, first)
	send(t, first, `{"action":"start"}`)
	readUntil(t, first, "state")

	second, _, err := f.dial(t, testGroupID)
	require.NoError(t, err)
	defer second.Close()
	st := readFrame(t, second)
	assert.Equal(t, engine.StatusRunning, st.State.Status)

	assert.Equal(t, "SESSION_NOT_RUNNING", readUntil(t, first, "error").Code)
}

func TestSessionStream_UnknownGroup(t *testing.T) {
	f := newWSFixture(t)
	_, resp, err := f.dial(t, "6f1c1b8e-5b2a-4f3a-8c1e-000000000000")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
