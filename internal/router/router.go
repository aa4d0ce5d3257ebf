package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/handler"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/middleware"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/response"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authenticator validates tokens and the single-device session.
type Authenticator interface {
	middleware.TokenValidator
	middleware.SessionValidator
}

// Handlers groups all handler instances for route setup.
type Handlers struct {
	ExamGroup      *handler.ExamGroupHandler
	WS             *handler.WSHandler
	Health         *handler.HealthHandler
	StudentSession *handler.StudentSessionHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background housekeeping such as rate limiter sweeps.
func SetupRouter(
	ctx context.Context,
	auth Authenticator,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Grading is the expensive call; 10 submissions per minute per profile.
	submitLimiter := middleware.NewRateLimiter(ctx, 10, time.Minute, middleware.ByProfile)

	// ─── 1. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(auth),
		middleware.CheckSingleDeviceSession(auth),
	)
	{
		groups := studentAPI.Group("/exam-groups/:group_id")
		groups.GET("", middleware.Brotli(), handlers.ExamGroup.GetGroup)
		groups.GET("/plan", middleware.PrivateCache(60), handlers.ExamGroup.GetPlan)
		groups.POST("/submit", middleware.NoStore(), submitLimiter.Middleware(), handlers.ExamGroup.Submit)
		groups.GET("/leaderboard", middleware.NoStore(), handlers.ExamGroup.GetLeaderboard)
	}

	// ─── 2. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireStudentWSAuth(auth),
		middleware.CheckSingleDeviceSession(auth),
	)
	{
		ws.GET("/student/exam-groups/:group_id/session", handlers.WS.SessionStream)
	}

	// ─── 3. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(auth), middleware.NoStore())
	{
		adminAPI.POST("/exam-groups/:group_id/refresh-cache",
			middleware.RequirePermission(service.PermPublishGroups),
			handlers.ExamGroup.RefreshCache,
		)
		adminAPI.POST("/students/:profile_id/reset-session",
			middleware.RequirePermission(service.PermResetSessions),
			handlers.StudentSession.ResetSession,
		)
	}

	return router
}
