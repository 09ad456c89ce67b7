package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talentgate/talentgate/internal/cache"
	"github.com/talentgate/talentgate/internal/database"
	"github.com/talentgate/talentgate/internal/models"
	"github.com/talentgate/talentgate/internal/scoring"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	// One connection so every statement sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// fakeScorer records requests and replays canned results.
type fakeScorer struct {
	mu       sync.Mutex
	requests []scoring.ScoreRequest
	result   *scoring.ScoreResult
	err      error
}

func (f *fakeScorer) Score(ctx context.Context, req scoring.ScoreRequest) (*scoring.ScoreResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	return &result, nil
}

func strongMatchResult() *scoring.ScoreResult {
	return &scoring.ScoreResult{
		OverallScore: 8.5,
		ScoreBreakdown: models.ScoreBreakdown{
			SkillOverlap:       0.9,
			SemanticSimilarity: 0.82,
			RoleRelevance:      0.88,
			SeniorityMatch:     0.75,
		},
		ExtractedSkills:    []string{"Go", "SQL"},
		MissingSkills:      []string{"Kubernetes"},
		Summary:            "Experienced backend engineer.",
		Recommendation:     models.StrongMatch,
		Confidence:         0.93,
		InterviewQuestions: []string{"Describe a Go service you built."},
		ProcessingTime:     120 * time.Millisecond,
		ServiceVersion:     "2.1.0",
	}
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{Email: "recruiter@example.com", Name: "Recruiter", APIToken: "test-token"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func seedJob(t *testing.T, db *gorm.DB, posterID string) *models.Job {
	t.Helper()
	job := &models.Job{
		Title:        "Backend Engineer",
		Company:      "Acme",
		Description:  "Backend engineer",
		Requirements: models.StringList{"Go", "SQL"},
		Status:       models.JobActive,
		PostedBy:     posterID,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("seeding job: %v", err)
	}
	return job
}

func newCandidateService(t *testing.T, db *gorm.DB, scorer scoring.Scorer) (*CandidateService, *JobService, *AnalyticsService) {
	t.Helper()
	logger := zap.NewNop()
	jobs := NewJobService(db, logger)
	analytics := NewAnalyticsService(db, cache.NewMemory(time.Minute), time.Minute, logger)
	candidates := NewCandidateService(db, scorer, jobs, analytics, logger)
	return candidates, jobs, analytics
}
