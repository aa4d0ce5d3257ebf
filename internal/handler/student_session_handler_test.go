package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeResetter struct {
	reset []int
	err   error
}

func (f *fakeResetter) ResetStudentSession(_ context.Context, profileID int) error {
	f.reset = append(f.reset, profileID)
	return f.err
}

func TestResetSession(t *testing.T) {
	auth := &fakeResetter{}
	r := gin.New()
	r.POST("/students/:profile_id/reset", NewStudentSessionHandler(auth, zerolog.Nop()).ResetSession)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/students/42/reset", nil).Code)
	assert.Equal(t, []int{42}, auth.reset)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/students/abc/reset", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/students/0/reset", nil).Code)

	auth.err = errors.New("redis down")
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodPost, "/students/42/reset", nil).Code)
}
