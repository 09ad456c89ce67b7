package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentgate/talentgate/internal/apperrors"
	"github.com/talentgate/talentgate/internal/auth"
	"github.com/talentgate/talentgate/internal/dtos"
	"github.com/talentgate/talentgate/internal/services"
)

type JobHandler struct {
	jobs *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// List is GET /api/jobs: the caller's postings, newest first.
func (h *JobHandler) List(c *gin.Context) {
	jobs, err := h.jobs.ListByPoster(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// Create is POST /api/jobs.
func (h *JobHandler) Create(c *gin.Context) {
	var req dtos.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body: "+err.Error(), err))
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), &req, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Job created successfully",
		"job":     job,
	})
}

// Get is GET /api/jobs/:id, scoped to the owner.
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobs.GetForPoster(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}
