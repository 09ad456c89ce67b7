package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate/internal/apperrors"
	"github.com/talentgate/talentgate/internal/cache"
	"github.com/talentgate/talentgate/internal/models"
)

const analyticsRecentLimit = 10

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type AnalyticsSummary struct {
	TotalCandidates      int64                            `json:"totalCandidates"`
	AverageScore         float64                          `json:"averageScore"`
	StatusCounts         map[models.CandidateStatus]int64 `json:"statusCounts"`
	RecommendationCounts map[models.Recommendation]int64  `json:"recommendationCounts"`
}

type RecentCandidate struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	OverallScore   float64                `json:"overall_score"`
	Recommendation models.Recommendation  `json:"recommendation"`
	Status         models.CandidateStatus `json:"status"`
	JobID          string                 `json:"job_id"`
	CreatedAt      time.Time              `json:"created_at"`
}

type AnalyticsResult struct {
	Summary          AnalyticsSummary  `json:"summary"`
	TopSkills        []SkillCount      `json:"topSkills"`
	RecentCandidates []RecentCandidate `json:"recentCandidates"`
}

type AnalyticsService struct {
	db     *gorm.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewAnalyticsService(db *gorm.DB, c cache.Cache, ttl time.Duration, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{db: db, cache: c, ttl: ttl, logger: logger}
}

func analyticsCacheKey(jobID string) string {
	if jobID == "" {
		return "analytics:all"
	}
	return "analytics:job:" + jobID
}

// Analytics computes the dashboard aggregates for one job or the whole
// store. Results are cached with a short TTL; cache failures degrade to
// direct computation.
func (s *AnalyticsService) Analytics(ctx context.Context, jobID string) (*AnalyticsResult, error) {
	key := analyticsCacheKey(jobID)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached AnalyticsResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				s.logger.Debug("analytics cache hit", zap.String("key", key))
				return &cached, nil
			}
			s.logger.Warn("discarding malformed analytics cache entry", zap.String("key", key))
		} else if err != cache.ErrNotFound {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		}
	}

	result, err := s.compute(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				s.logger.Warn("analytics cache write failed", zap.Error(err))
			}
		}
	}
	return result, nil
}

// Invalidate drops cached aggregates touched by a candidate write.
func (s *AnalyticsService) Invalidate(ctx context.Context, jobID string) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{analyticsCacheKey(jobID), analyticsCacheKey("")} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("analytics cache invalidation failed",
				zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *AnalyticsService) compute(ctx context.Context, jobID string) (*AnalyticsResult, error) {
	scoped := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Candidate{})
		if jobID != "" {
			q = q.Where("job_id = ?", jobID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, apperrors.Storage("failed to count candidates", err)
	}

	summary := AnalyticsSummary{
		TotalCandidates:      total,
		StatusCounts:         make(map[models.CandidateStatus]int64, len(models.AllCandidateStatuses)),
		RecommendationCounts: make(map[models.Recommendation]int64, len(models.AllRecommendations)),
	}
	// Every enum member is present even at zero, so dashboards never
	// have to guess at missing keys.
	for _, status := range models.AllCandidateStatuses {
		summary.StatusCounts[status] = 0
	}
	for _, rec := range models.AllRecommendations {
		summary.RecommendationCounts[rec] = 0
	}

	result := &AnalyticsResult{
		Summary:          summary,
		TopSkills:        []SkillCount{},
		RecentCandidates: []RecentCandidate{},
	}

	if total == 0 {
		return result, nil
	}

	var avg float64
	if err := scoped().Select("AVG(overall_score)").Scan(&avg).Error; err != nil {
		return nil, apperrors.Storage("failed to average scores", err)
	}
	result.Summary.AverageScore = round2(avg)

	type groupCount struct {
		Key   string
		Count int64
	}
	var statusRows []groupCount
	if err := scoped().
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, apperrors.Storage("failed to group by status", err)
	}
	for _, row := range statusRows {
		status := models.CandidateStatus(row.Key)
		if status.Valid() {
			result.Summary.StatusCounts[status] = row.Count
		}
	}

	var recRows []groupCount
	if err := scoped().
		Select("recommendation AS key, COUNT(*) AS count").
		Group("recommendation").
		Scan(&recRows).Error; err != nil {
		return nil, apperrors.Storage("failed to group by recommendation", err)
	}
	for _, row := range recRows {
		rec := models.Recommendation(row.Key)
		if rec.Valid() {
			result.Summary.RecommendationCounts[rec] = row.Count
		}
	}

	topSkills, err := s.topSkills(ctx, jobID)
	if err != nil {
		return nil, err
	}
	result.TopSkills = topSkills

	var recent []models.Candidate
	if err := scoped().
		Order("created_at DESC, id ASC").
		Limit(analyticsRecentLimit).
		Find(&recent).Error; err != nil {
		return nil, apperrors.Storage("failed to fetch recent candidates", err)
	}
	for _, c := range recent {
		result.RecentCandidates = append(result.RecentCandidates, RecentCandidate{
			ID:             c.ID,
			Name:           c.Name,
			Email:          c.Email,
			OverallScore:   c.OverallScore,
			Recommendation: c.Recommendation,
			Status:         c.Status,
			JobID:          c.JobID,
			CreatedAt:      c.CreatedAt,
		})
	}

	return result, nil
}

// topSkills counts individual skill occurrences across the scope. The
// skill lists live in a JSON column, so counting happens here; ties rank
// by first-seen order, which keeps the output stable across runs.
func (s *AnalyticsService) topSkills(ctx context.Context, jobID string) ([]SkillCount, error) {
	query := s.db.WithContext(ctx).Model(&models.Candidate{}).Order("created_at ASC, id ASC")
	if jobID != "" {
		query = query.Where("job_id = ?", jobID)
	}

	var rows []models.Candidate
	if err := query.Select("id", "created_at", "skills").Find(&rows).Error; err != nil {
		return nil, apperrors.Storage("failed to fetch candidate skills", err)
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, c := range rows {
		for _, skill := range c.Skills {
			if _, seen := counts[skill]; !seen {
				firstSeen[skill] = order
				order++
			}
			counts[skill]++
		}
	}

	skills := make([]SkillCount, 0, len(counts))
	for skill, count := range counts {
		skills = append(skills, SkillCount{Skill: skill, Count: count})
	}
	sort.SliceStable(skills, func(i, j int) bool {
		if skills[i].Count != skills[j].Count {
			return skills[i].Count > skills[j].Count
		}
		return firstSeen[skills[i].Skill] < firstSeen[skills[j].Skill]
	})

	if len(skills) > 10 {
		skills = skills[:10]
	}
	return skills, nil
}

// round2 rounds half away from zero to two decimal places. math.Round
// pins the rule: 4.005 -> 4.01, -4.005 -> -4.01.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
