package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate/internal/database"
)

type HealthHandler struct {
	db      *gorm.DB
	version string
	started time.Time
}

func NewHealthHandler(db *gorm.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, started: time.Now()}
}

// Get is GET /health: liveness plus store connectivity. Unauthenticated.
func (h *HealthHandler) Get(c *gin.Context) {
	dbState := "connected"
	status := "OK"
	code := http.StatusOK
	if err := database.Ping(h.db); err != nil {
		dbState = "disconnected"
		status = "DEGRADED"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Seconds(),
		"database":  dbState,
		"version":   h.version,
	})
}
