package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentgate/talentgate/internal/services"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Get is GET /api/analytics, optionally scoped with ?jobId=.
func (h *AnalyticsHandler) Get(c *gin.Context) {
	result, err := h.analytics.Analytics(c.Request.Context(), c.Query("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
