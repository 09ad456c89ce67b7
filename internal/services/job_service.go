package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate/internal/apperrors"
	"github.com/talentgate/talentgate/internal/dtos"
	"github.com/talentgate/talentgate/internal/models"
)

type JobService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewJobService(db *gorm.DB, logger *zap.Logger) *JobService {
	return &JobService{db: db, logger: logger}
}

func (s *JobService) Create(ctx context.Context, req *dtos.CreateJobRequest, posterID string) (*models.Job, error) {
	job := &models.Job{
		Title:           req.Title,
		Company:         req.Company,
		Description:     req.Description,
		Requirements:    models.StringList(req.Requirements),
		Skills:          models.StringList(req.Skills),
		Location:        req.Location,
		EmploymentType:  models.EmploymentType(req.EmploymentType),
		ExperienceLevel: models.ExperienceLevel(req.ExperienceLevel),
		Status:          models.JobStatus(req.Status),
		PostedBy:        posterID,
	}
	if req.SalaryRange != nil {
		job.SalaryRange = models.SalaryRange{
			Min:      req.SalaryRange.Min,
			Max:      req.SalaryRange.Max,
			Currency: req.SalaryRange.Currency,
		}
	}
	if req.ApplicationDeadline != nil {
		job.ApplicationDeadline = req.ApplicationDeadline
	}

	if err := job.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, apperrors.Storage("failed to create job", err)
	}

	s.logger.Info("job created",
		zap.String("job_id", job.ID),
		zap.String("title", job.Title),
		zap.String("posted_by", posterID))
	return job, nil
}

// ListByPoster returns the caller's postings, newest first.
func (s *JobService) ListByPoster(ctx context.Context, posterID string) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("posted_by = ?", posterID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, apperrors.Storage("failed to fetch jobs", err)
	}
	return jobs, nil
}

// GetForPoster fetches one posting scoped to its owner. A job owned by
// someone else is indistinguishable from a missing one.
func (s *JobService) GetForPoster(ctx context.Context, id, posterID string) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).
		Where("id = ? AND posted_by = ?", id, posterID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("job not found", nil)
	}
	if err != nil {
		return nil, apperrors.Storage("failed to fetch job", err)
	}
	return &job, nil
}

// Get fetches a posting without owner scoping. The scoring pipeline uses
// it to pull job context for any submitted application.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("job not found", nil)
	}
	if err != nil {
		return nil, apperrors.Storage("failed to fetch job", err)
	}
	return &job, nil
}

// RecomputeCandidateCount refreshes the cached projection with a full
// count query. The projection is eventually consistent: two concurrent
// creates may each persist a count missing the other's insert, and the
// background reconciler repairs any drift.
func (s *JobService) RecomputeCandidateCount(ctx context.Context, jobID string) error {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("job_id = ?", jobID).
		Count(&count).Error; err != nil {
		return apperrors.Storage("failed to count candidates", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Update("candidate_count", count).Error; err != nil {
		return apperrors.Storage("failed to update candidate count", err)
	}
	return nil
}

// ReconcileCandidateCounts recounts every posting. Safe to run at any
// time; invoked on a schedule by the reconciler.
func (s *JobService) ReconcileCandidateCounts(ctx context.Context) error {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Pluck("id", &ids).Error; err != nil {
		return apperrors.Storage("failed to list jobs for reconciliation", err)
	}

	for _, id := range ids {
		if err := s.RecomputeCandidateCount(ctx, id); err != nil {
			s.logger.Warn("candidate count reconciliation failed",
				zap.String("job_id", id), zap.Error(err))
		}
	}
	return nil
}
