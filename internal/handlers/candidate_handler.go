package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talentgate/talentgate/internal/apperrors"
	"github.com/talentgate/talentgate/internal/auth"
	"github.com/talentgate/talentgate/internal/dtos"
	"github.com/talentgate/talentgate/internal/services"
)

type CandidateHandler struct {
	candidates *services.CandidateService
}

func NewCandidateHandler(candidates *services.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidates: candidates}
}

// List is GET /api/candidates.
func (h *CandidateHandler) List(c *gin.Context) {
	filter, err := parseCandidateFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.candidates.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"candidates": result.Candidates,
		"pagination": result.Pagination,
	})
}

func parseCandidateFilter(c *gin.Context) (services.CandidateFilter, error) {
	filter := services.CandidateFilter{
		JobID:          c.Query("jobId"),
		Status:         c.Query("status"),
		Recommendation: c.Query("recommendation"),
		SortBy:         c.Query("sortBy"),
		SortOrder:      c.Query("sortOrder"),
	}

	if raw := c.Query("minScore"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, apperrors.Validation("minScore must be a number", err)
		}
		filter.MinScore = &v
	}
	if raw := c.Query("maxScore"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, apperrors.Validation("maxScore must be a number", err)
		}
		filter.MaxScore = &v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperrors.Validation("limit must be an integer", err)
		}
		filter.Limit = v
	}
	if raw := c.Query("skip"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperrors.Validation("skip must be an integer", err)
		}
		filter.Skip = v
	}
	if raw := c.Query("skills"); raw != "" {
		for _, skill := range strings.Split(raw, ",") {
			if s := strings.TrimSpace(skill); s != "" {
				filter.Skills = append(filter.Skills, s)
			}
		}
	}
	return filter, nil
}

// Create is POST /api/candidates: the scoring pipeline entrypoint.
func (h *CandidateHandler) Create(c *gin.Context) {
	var req dtos.CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body: "+err.Error(), err))
		return
	}

	candidate, err := h.candidates.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Candidate processed successfully",
		"candidate": candidate,
	})
}

// Get is GET /api/candidates/:id.
func (h *CandidateHandler) Get(c *gin.Context) {
	candidate, err := h.candidates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidate": candidate})
}

// UpdateStatus is PATCH /api/candidates/:id/status.
func (h *CandidateHandler) UpdateStatus(c *gin.Context) {
	var req dtos.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body: "+err.Error(), err))
		return
	}

	candidate, err := h.candidates.UpdateStatus(c.Request.Context(), c.Param("id"), &req, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Candidate status updated",
		"candidate": candidate,
	})
}
