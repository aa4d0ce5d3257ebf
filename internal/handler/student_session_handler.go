package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/response"
	"github.com/rs/zerolog"
)

// SessionResetter releases the single-device lock of a student.
type SessionResetter interface {
	ResetStudentSession(ctx context.Context, profileID int) error
}

// StudentSessionHandler serves admin actions on student logins.
type StudentSessionHandler struct {
	auth SessionResetter
	log  zerolog.Logger
}

func NewStudentSessionHandler(auth SessionResetter, log zerolog.Logger) *StudentSessionHandler {
	return &StudentSessionHandler{
		auth: auth,
		log:  log.With().Str("component", "student_session_handler").Logger(),
	}
}

// ResetSession godoc
// POST /api/v1/admin/students/:profile_id/reset-session
// Lets a student sign in from a new device. Live exam progress is kept.
func (h *StudentSessionHandler) ResetSession(c *gin.Context) {
	profileID, err := strconv.Atoi(c.Param("profile_id"))
	if err != nil || profileID <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.auth.ResetStudentSession(c.Request.Context(), profileID); err != nil {
		h.log.Error().Err(err).Int("profile_id", profileID).Msg("Reset session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.log.Info().Int("profile_id", profileID).Msg("Student session reset")
	response.Success(c, http.StatusOK, gin.H{"reset": true})
}
