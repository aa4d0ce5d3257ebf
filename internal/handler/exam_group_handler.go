package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/middleware"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/response"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/validator"
	"github.com/rs/zerolog"
)

// GroupReader serves exam group payloads and layouts.
type GroupReader interface {
	GetForStudent(ctx context.Context, groupID string) (*model.ExamGroup, error)
	Plan(ctx context.Context, groupID string) (*engine.Plan, error)
	RefreshCache(ctx context.Context, groupID string) error
}

// GroupGrader grades a group submission on behalf of a profile.
type GroupGrader interface {
	SubmitAs(ctx context.Context, profileID int, sub model.GroupSubmission) (*model.SubmitResult, error)
}

// Leaderboard returns the best scores of a group.
type Leaderboard interface {
	Top(ctx context.Context, groupID string, limit int) ([]model.LeaderboardEntry, error)
}

// ExamGroupHandler handles the exam group REST endpoints.
type ExamGroupHandler struct {
	groups      GroupReader
	grader      GroupGrader
	leaderboard Leaderboard
	log         zerolog.Logger
}

// NewExamGroupHandler creates a new ExamGroupHandler.
func NewExamGroupHandler(groups GroupReader, grader GroupGrader, leaderboard Leaderboard, log zerolog.Logger) *ExamGroupHandler {
	return &ExamGroupHandler{
		groups:      groups,
		grader:      grader,
		leaderboard: leaderboard,
		log:         log.With().Str("component", "exam_group_handler").Logger(),
	}
}

// GetGroup godoc
// GET /api/v1/student/exam-groups/:group_id
// Returns the group payload without answer keys.
func (h *ExamGroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := groupParam(c)
	if !ok {
		return
	}

	group, err := h.groups.GetForStudent(c.Request.Context(), groupID)
	if err != nil {
		h.failGroup(c, groupID, err)
		return
	}

	response.Success(c, http.StatusOK, group)
}

// GetPlan godoc
// GET /api/v1/student/exam-groups/:group_id/plan
// Returns the tab layout and allotted seconds of the group's variant.
func (h *ExamGroupHandler) GetPlan(c *gin.Context) {
	groupID, ok := groupParam(c)
	if !ok {
		return
	}

	plan, err := h.groups.Plan(c.Request.Context(), groupID)
	if err != nil {
		h.failGroup(c, groupID, err)
		return
	}

	response.Success(c, http.StatusOK, plan)
}

// Submit godoc
// POST /api/v1/student/exam-groups/:group_id/submit
// Grades every paper of the group and queues the result for persistence.
func (h *ExamGroupHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	groupID, ok := groupParam(c)
	if !ok {
		return
	}

	var req model.GroupSubmission
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.GroupID != groupID {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	result, err := h.grader.SubmitAs(c.Request.Context(), claims.ProfileID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGroupNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrGroupNotFound)
		case errors.Is(err, service.ErrUnknownPaper), errors.Is(err, service.ErrDuplicatePaper):
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownPaper)
		case errors.Is(err, service.ErrEmptySubmission):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		case errors.Is(err, service.ErrProfileMismatch):
			response.Fail(c, http.StatusForbidden, response.ErrProfileMismatch)
		case errors.Is(err, service.ErrSessionInProgress):
			response.Fail(c, http.StatusConflict, response.ErrSessionInProgress)
		default:
			h.log.Error().Err(err).Str("group_id", groupID).Int("profile_id", claims.ProfileID).Msg("Submit failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrSubmissionFailed)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetLeaderboard godoc
// GET /api/v1/student/exam-groups/:group_id/leaderboard?limit=
func (h *ExamGroupHandler) GetLeaderboard(c *gin.Context) {
	groupID, ok := groupParam(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"limit": "limit must be a positive number",
			})
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.Top(c.Request.Context(), groupID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("group_id", groupID).Msg("Leaderboard failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	response.Success(c, http.StatusOK, gin.H{"entries": entries})
}

// RefreshCache godoc
// POST /api/v1/admin/exam-groups/:group_id/refresh-cache
// Reloads the group from PostgreSQL into Redis after content changes.
func (h *ExamGroupHandler) RefreshCache(c *gin.Context) {
	groupID, ok := groupParam(c)
	if !ok {
		return
	}

	if err := h.groups.RefreshCache(c.Request.Context(), groupID); err != nil {
		h.failGroup(c, groupID, err)
		return
	}

	h.log.Info().Str("group_id", groupID).Msg("Group cache refreshed")
	response.Success(c, http.StatusOK, gin.H{"refreshed": true})
}

func (h *ExamGroupHandler) failGroup(c *gin.Context, groupID string, err error) {
	if errors.Is(err, service.ErrGroupNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrGroupNotFound)
		return
	}
	h.log.Error().Err(err).Str("group_id", groupID).Msg("Load group failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// groupParam reads :group_id and rejects malformed ids.
func groupParam(c *gin.Context) (string, bool) {
	raw := c.Param("group_id")
	if _, err := uuid.Parse(raw); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return raw, true
}
