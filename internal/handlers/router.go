package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterDeps carries everything the HTTP surface needs. The auth
// middleware is injected so tests can substitute a canned identity.
type RouterDeps struct {
	Candidates *CandidateHandler
	Jobs       *JobHandler
	Analytics  *AnalyticsHandler
	Health     *HealthHandler

	AuthMiddleware gin.HandlerFunc
	Logger         *zap.Logger
	AllowedOrigin  string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{deps.AllowedOrigin}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.GET("/health", deps.Health.Get)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "TalentGate API",
			"endpoints": gin.H{
				"health":     "/health",
				"candidates": "/api/candidates",
				"jobs":       "/api/jobs",
				"analytics":  "/api/analytics",
			},
		})
	})

	api := r.Group("/api")
	api.Use(deps.AuthMiddleware)
	{
		api.GET("/candidates", deps.Candidates.List)
		api.POST("/candidates", deps.Candidates.Create)
		api.GET("/candidates/:id", deps.Candidates.Get)
		api.PATCH("/candidates/:id/status", deps.Candidates.UpdateStatus)

		api.GET("/jobs", deps.Jobs.List)
		api.POST("/jobs", deps.Jobs.Create)
		api.GET("/jobs/:id", deps.Jobs.Get)

		api.GET("/analytics", deps.Analytics.Get)
	}

	return r
}
