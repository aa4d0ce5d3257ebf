package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/handler"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupID = "0b6c3f0e-6a51-4c53-9d7e-2f3f6f1d9a10"

type fakeAuth struct{}

func (fakeAuth) ValidateToken(tokenStr string) (*service.Claims, error) {
	switch tokenStr {
	case "student":
		return &service.Claims{TokenType: service.TokenTypeStudent, ProfileID: 1}, nil
	case "admin":
		return &service.Claims{TokenType: service.TokenTypeAdmin, Permissions: []string{service.PermPublishGroups}}, nil
	}
	return nil, errors.New("invalid")
}

func (fakeAuth) ValidateStudentSession(context.Context, int, string) error { return nil }

type stubGroups struct{}

func (stubGroups) GetForStudent(context.Context, string) (*model.ExamGroup, error) {
	return &model.ExamGroup{ID: groupID}, nil
}

func (stubGroups) Plan(context.Context, string) (*engine.Plan, error) {
	return &engine.Plan{GroupID: groupID}, nil
}

func (stubGroups) RefreshCache(context.Context, string) error { return nil }

type stubHealth struct{}

func (stubHealth) Check(context.Context) (map[string]string, error) {
	return map[string]string{"postgres": "ok"}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	handlers := &Handlers{
		ExamGroup:      handler.NewExamGroupHandler(stubGroups{}, nil, nil, log),
		WS:             handler.NewWSHandler(nil, log, nil),
		Health:         handler.NewHealthHandler(stubHealth{}, log),
		StudentSession: handler.NewStudentSessionHandler(nil, log),
	}
	return SetupRouter(ctx, fakeAuth{}, handlers, &config.Config{GinMode: gin.TestMode})
}

func get(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "exam_live_sessions_current")
}

func TestRouter_StudentRoutes(t *testing.T) {
	r := newTestRouter(t)
	path := "/api/v1/student/exam-groups/" + groupID

	assert.Equal(t, http.StatusUnauthorized, get(r, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, http.MethodGet, path, "admin").Code)

	w := get(r, http.MethodGet, path, "student")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(r, http.MethodGet, path+"/plan", "student")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "private, max-age=60", w.Header().Get("Cache-Control"))
}

func TestRouter_AdminRoutes(t *testing.T) {
	r := newTestRouter(t)
	path := "/api/v1/admin/exam-groups/" + groupID + "/refresh-cache"

	assert.Equal(t, http.StatusOK, get(r, http.MethodPost, path, "admin").Code)
	assert.Equal(t, http.StatusForbidden, get(r, http.MethodPost, path, "student").Code)

	// The admin token lacks the reset permission.
	assert.Equal(t, http.StatusForbidden, get(r, http.MethodPost, "/api/v1/admin/students/1/reset-session", "admin").Code)
}

func TestRouter_WebSocketNeedsQueryToken(t *testing.T) {
	r := newTestRouter(t)
	w := get(r, http.MethodGet, "/ws/v1/student/exam-groups/"+groupID+"/session", "student")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
