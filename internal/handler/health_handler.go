package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthChecker reports the status of each backing store.
type HealthChecker interface {
	Check(ctx context.Context) (map[string]string, error)
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	checker HealthChecker
	log     zerolog.Logger
}

func NewHealthHandler(checker HealthChecker, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		log:     log.With().Str("component", "health_handler").Logger(),
	}
}

// Health returns 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	checks, err := h.checker.Check(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}
