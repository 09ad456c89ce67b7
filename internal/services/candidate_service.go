package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate/internal/apperrors"
	"github.com/talentgate/talentgate/internal/dtos"
	"github.com/talentgate/talentgate/internal/models"
	"github.com/talentgate/talentgate/internal/scoring"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// sortColumns whitelists caller-facing sort fields against their columns.
var sortColumns = map[string]string{
	"overallScore":    "overall_score",
	"createdAt":       "created_at",
	"name":            "name",
	"confidence":      "confidence",
	"experienceYears": "experience_years",
}

// CandidateFilter selects and orders candidates for listing. Zero values
// mean "no constraint"; Limit <= 0 falls back to the default page size.
type CandidateFilter struct {
	JobID          string
	Status         string
	MinScore       *float64
	MaxScore       *float64
	Recommendation string
	Skills         []string

	SortBy    string
	SortOrder string

	Limit int
	Skip  int
}

// Pagination reports where a page sits inside the full result set.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

type CandidateList struct {
	Candidates []models.Candidate `json:"candidates"`
	Pagination Pagination         `json:"pagination"`
}

// AnalyticsInvalidator is satisfied by the analytics service; candidate
// writes call it so cached dashboards do not serve stale aggregates.
type AnalyticsInvalidator interface {
	Invalidate(ctx context.Context, jobID string)
}

type CandidateService struct {
	db          *gorm.DB
	scorer      scoring.Scorer
	jobs        *JobService
	invalidator AnalyticsInvalidator
	logger      *zap.Logger
}

func NewCandidateService(db *gorm.DB, scorer scoring.Scorer, jobs *JobService, invalidator AnalyticsInvalidator, logger *zap.Logger) *CandidateService {
	return &CandidateService{
		db:          db,
		scorer:      scorer,
		jobs:        jobs,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Create runs the scoring pipeline: fetch job context, call the scoring
// collaborator, normalize the result into a candidate record, persist it,
// then refresh the job's candidate count. A scoring failure aborts before
// any write; a persistence failure after scoring surfaces as a storage
// error so the caller knows the expensive scoring call need not repeat.
func (s *CandidateService) Create(ctx context.Context, req *dtos.CreateCandidateRequest) (*models.Candidate, error) {
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, apperrors.Validation("resume text is required", nil)
	}
	if strings.TrimSpace(req.JobID) == "" {
		return nil, apperrors.Validation("job id is required", nil)
	}

	job, err := s.jobs.Get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	result, err := s.scorer.Score(ctx, scoring.ScoreRequest{
		ResumeText:      req.ResumeText,
		JobDescription:  job.Description,
		JobRequirements: job.Requirements,
	})
	if err != nil {
		return nil, err
	}

	candidate := s.normalize(req, job, result)

	if err := candidate.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	// The (email, job_id) unique index is the authority on duplicates;
	// no check-then-insert, so concurrent submissions cannot race past it.
	if err := s.db.WithContext(ctx).Create(candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("candidate already applied to this job", err)
		}
		return nil, apperrors.Storage("failed to persist candidate", err)
	}

	if err := s.jobs.RecomputeCandidateCount(ctx, job.ID); err != nil {
		// The record is durable; the projection catches up via the reconciler.
		s.logger.Warn("candidate count refresh failed",
			zap.String("job_id", job.ID), zap.Error(err))
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, job.ID)
	}

	s.logger.Info("candidate created",
		zap.String("candidate_id", candidate.ID),
		zap.String("job_id", job.ID),
		zap.Float64("overall_score", candidate.OverallScore),
		zap.String("recommendation", string(candidate.Recommendation)))
	return candidate, nil
}

// normalize merges the submission with the scoring result. Explicit
// request fields win over extracted-profile fallbacks.
func (s *CandidateService) normalize(req *dtos.CreateCandidateRequest, job *models.Job, result *scoring.ScoreResult) *models.Candidate {
	candidate := &models.Candidate{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		ResumeText:     req.ResumeText,
		ResumeFileName: req.ResumeFileName,
		JobID:          job.ID,

		OverallScore:       result.OverallScore,
		ScoreBreakdown:     result.ScoreBreakdown,
		Skills:             models.StringList(result.ExtractedSkills),
		ExtractedSkills:    models.StringList(result.ExtractedSkills),
		MissingSkills:      models.StringList(result.MissingSkills),
		AISummary:          result.Summary,
		Recommendation:     result.Recommendation,
		Confidence:         result.Confidence,
		InterviewQuestions: models.StringList(result.InterviewQuestions),

		Status:           models.StatusNew,
		ProcessingTime:   result.ProcessingTime.Seconds(),
		MLServiceVersion: result.ServiceVersion,
	}

	if profile := result.ExtractedProfile; profile != nil {
		if candidate.Name == "" {
			candidate.Name = profile.Name
		}
		if candidate.Email == "" {
			candidate.Email = profile.Email
		}
		if candidate.Phone == "" {
			candidate.Phone = profile.Phone
		}
		candidate.ExperienceYears = profile.ExperienceYears
		candidate.Education = models.StringList(profile.Education)
		candidate.Roles = models.StringList(profile.Roles)
		candidate.Companies = models.StringList(profile.Companies)
	}

	candidate.Email = models.NormalizeEmail(candidate.Email)
	return candidate
}

func (s *CandidateService) Get(ctx context.Context, id string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := s.db.WithContext(ctx).Preload("Job").First(&candidate, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("candidate not found", nil)
	}
	if err != nil {
		return nil, apperrors.Storage("failed to fetch candidate", err)
	}
	return &candidate, nil
}

// List builds a filtered, sorted, paginated view. Results are ordered by
// the requested column with id as a tiebreaker, so identical queries with
// no intervening writes return identical pages.
func (s *CandidateService) List(ctx context.Context, filter CandidateFilter) (*CandidateList, error) {
	orderClause, err := buildOrder(filter)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	query := s.db.WithContext(ctx).Model(&models.Candidate{})
	if filter.JobID != "" {
		query = query.Where("job_id = ?", filter.JobID)
	}
	if filter.Status != "" {
		status := models.CandidateStatus(filter.Status)
		if !status.Valid() {
			return nil, apperrors.Validation("invalid status filter: "+filter.Status, nil)
		}
		query = query.Where("status = ?", status)
	}
	if filter.Recommendation != "" {
		rec := models.Recommendation(filter.Recommendation)
		if !rec.Valid() {
			return nil, apperrors.Validation("invalid recommendation filter: "+filter.Recommendation, nil)
		}
		query = query.Where("recommendation = ?", rec)
	}
	if filter.MinScore != nil {
		query = query.Where("overall_score >= ?", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		query = query.Where("overall_score <= ?", *filter.MaxScore)
	}

	query = query.Order(orderClause)

	var (
		candidates []models.Candidate
		total      int64
	)

	if len(filter.Skills) > 0 {
		// The skill list lives in a JSON column, so match-any filtering
		// happens here rather than in SQL; pagination is applied after.
		var all []models.Candidate
		if err := query.Preload("Job").Find(&all).Error; err != nil {
			return nil, apperrors.Storage("failed to fetch candidates", err)
		}
		matched := make([]models.Candidate, 0, len(all))
		for _, c := range all {
			if hasAnySkill(c.Skills, filter.Skills) {
				matched = append(matched, c)
			}
		}
		total = int64(len(matched))
		candidates = pageOf(matched, skip, limit)
	} else {
		if err := query.Count(&total).Error; err != nil {
			return nil, apperrors.Storage("failed to count candidates", err)
		}
		if err := query.Preload("Job").Limit(limit).Offset(skip).Find(&candidates).Error; err != nil {
			return nil, apperrors.Storage("failed to fetch candidates", err)
		}
	}

	return &CandidateList{
		Candidates: candidates,
		Pagination: Pagination{
			Total: total,
			Page:  skip/limit + 1,
			Pages: int((total + int64(limit) - 1) / int64(limit)),
			Limit: limit,
		},
	}, nil
}

func buildOrder(filter CandidateFilter) (string, error) {
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "overallScore"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return "", apperrors.Validation("unsupported sort field: "+sortBy, nil)
	}

	direction := "DESC"
	switch strings.ToLower(filter.SortOrder) {
	case "", "desc":
	case "asc":
		direction = "ASC"
	default:
		return "", apperrors.Validation("sort order must be asc or desc", nil)
	}
	return column + " " + direction + ", id ASC", nil
}

func hasAnySkill(have models.StringList, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(w), h) {
				return true
			}
		}
	}
	return false
}

func pageOf(candidates []models.Candidate, skip, limit int) []models.Candidate {
	if skip >= len(candidates) {
		return []models.Candidate{}
	}
	end := skip + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[skip:end]
}

// UpdateStatus moves a candidate through the review lifecycle. The first
// transition into "reviewed" stamps reviewedAt/reviewedBy; later ones
// leave the original stamp untouched. Notes and rating may be attached
// with or without a status change taking effect.
func (s *CandidateService) UpdateStatus(ctx context.Context, id string, req *dtos.UpdateStatusRequest, reviewerID string) (*models.Candidate, error) {
	status := models.CandidateStatus(req.Status)
	if !status.Valid() {
		return nil, apperrors.Validation("invalid status: "+req.Status, nil)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, apperrors.Validation("rating must be between 1 and 5", nil)
	}

	candidate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status": status,
	}
	if status == models.StatusReviewed && candidate.ReviewedAt == nil {
		now := time.Now().UTC()
		updates["reviewed_at"] = now
		updates["reviewed_by"] = reviewerID
	}
	if req.Notes != nil {
		updates["recruiter_notes"] = *req.Notes
	}
	if req.Rating != nil {
		updates["recruiter_rating"] = *req.Rating
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, apperrors.Storage("failed to update candidate status", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, candidate.JobID)
	}

	s.logger.Info("candidate status updated",
		zap.String("candidate_id", id),
		zap.String("status", string(status)),
		zap.String("reviewer", reviewerID))

	return s.Get(ctx, id)
}
