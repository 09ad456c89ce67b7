package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talentgate/talentgate/internal/apperrors"
	"github.com/talentgate/talentgate/internal/auth"
	"github.com/talentgate/talentgate/internal/cache"
	"github.com/talentgate/talentgate/internal/database"
	"github.com/talentgate/talentgate/internal/models"
	"github.com/talentgate/talentgate/internal/scoring"
	"github.com/talentgate/talentgate/internal/services"
)

type stubScorer struct {
	mu     sync.Mutex
	result *scoring.ScoreResult
	err    error
}

func (s *stubScorer) Score(ctx context.Context, req scoring.ScoreRequest) (*scoring.ScoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	result := *s.result
	return &result, nil
}

func goodScore() *scoring.ScoreResult {
	return &scoring.ScoreResult{
		OverallScore: 8.5,
		ScoreBreakdown: models.ScoreBreakdown{
			SkillOverlap:       0.9,
			SemanticSimilarity: 0.82,
			RoleRelevance:      0.88,
			SeniorityMatch:     0.75,
		},
		ExtractedSkills: []string{"Go", "SQL"},
		Summary:         "Experienced backend engineer.",
		Recommendation:  models.StrongMatch,
		Confidence:      0.93,
	}
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	scorer *stubScorer
	user   *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	user := &models.User{Email: "recruiter@example.com", Name: "Recruiter", APIToken: "test-token"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	log := zap.NewNop()
	scorer := &stubScorer{result: goodScore()}
	jobs := services.NewJobService(db, log)
	analytics := services.NewAnalyticsService(db, cache.NewMemory(time.Minute), time.Minute, log)
	candidates := services.NewCandidateService(db, scorer, jobs, analytics, log)

	router := NewRouter(RouterDeps{
		Candidates:     NewCandidateHandler(candidates),
		Jobs:           NewJobHandler(jobs),
		Analytics:      NewAnalyticsHandler(analytics),
		Health:         NewHealthHandler(db, "test"),
		AuthMiddleware: auth.Middleware(db),
		Logger:         log,
		AllowedOrigin:  "http://localhost:3000",
	})

	return &testEnv{router: router, db: db, scorer: scorer, user: user}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createJob(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/jobs", map[string]interface{}{
		"title":        "Backend Engineer",
		"company":      "Acme",
		"description":  "Backend engineer",
		"requirements": []string{"Go", "SQL"},
	}, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create job status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Job models.Job `json:"job"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding job response: %v", err)
	}
	return resp.Job.ID
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/candidates", "/api/jobs", "/api/analytics"} {
		w := env.do(t, http.MethodGet, path, nil, false)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown token: status = %d, want 401", w.Code)
	}
}

func TestHealthUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	if resp["status"] != "OK" || resp["database"] != "connected" {
		t.Errorf("health = %v", resp)
	}
	if _, ok := resp["uptime"]; !ok {
		t.Error("health response missing uptime")
	}
}

func TestCandidateEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.createJob(t)

	w := env.do(t, http.MethodPost, "/api/candidates", map[string]interface{}{
		"resumeText": "5 years Go and SQL experience",
		"jobId":      jobID,
		"name":       "Jane Doe",
		"email":      "jane@example.com",
	}, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create candidate status = %d, body = %s", w.Code, w.Body.String())
	}

	var created struct {
		Candidate models.Candidate `json:"candidate"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding candidate: %v", err)
	}
	if created.Candidate.OverallScore != 8.5 {
		t.Errorf("OverallScore = %v, want 8.5", created.Candidate.OverallScore)
	}
	if created.Candidate.Status != models.StatusNew {
		t.Errorf("Status = %q, want new", created.Candidate.Status)
	}

	// Job reflects the new candidate.
	jw := env.do(t, http.MethodGet, "/api/jobs/"+jobID, nil, true)
	var jobResp struct {
		Job models.Job `json:"job"`
	}
	if err := json.Unmarshal(jw.Body.Bytes(), &jobResp); err != nil {
		t.Fatalf("decoding job: %v", err)
	}
	if jobResp.Job.CandidateCount != 1 {
		t.Errorf("CandidateCount = %d, want 1", jobResp.Job.CandidateCount)
	}

	// Duplicate submission conflicts.
	dup := env.do(t, http.MethodPost, "/api/candidates", map[string]interface{}{
		"resumeText": "5 years Go and SQL experience",
		"jobId":      jobID,
		"name":       "Jane Doe",
		"email":      "jane@example.com",
	}, true)
	if dup.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409; body = %s", dup.Code, dup.Body.String())
	}
	var dupResp map[string]string
	json.Unmarshal(dup.Body.Bytes(), &dupResp)
	if dupResp["error"] != "CONFLICT" {
		t.Errorf("duplicate error kind = %q, want CONFLICT", dupResp["error"])
	}

	// Fetch by id and lifecycle transition.
	gw := env.do(t, http.MethodGet, "/api/candidates/"+created.Candidate.ID, nil, true)
	if gw.Code != http.StatusOK {
		t.Errorf("get candidate status = %d", gw.Code)
	}

	pw := env.do(t, http.MethodPatch, "/api/candidates/"+created.Candidate.ID+"/status", map[string]interface{}{
		"status": "reviewed",
		"notes":  "Solid profile",
	}, true)
	if pw.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", pw.Code, pw.Body.String())
	}
	var patched struct {
		Candidate models.Candidate `json:"candidate"`
	}
	json.Unmarshal(pw.Body.Bytes(), &patched)
	if patched.Candidate.ReviewedAt == nil {
		t.Error("ReviewedAt not stamped")
	}
	if patched.Candidate.ReviewedBy != env.user.ID {
		t.Errorf("ReviewedBy = %q, want caller id", patched.Candidate.ReviewedBy)
	}
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.createJob(t)

	tests := []struct {
		name       string
		setup      func()
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantKind   string
	}{
		{
			name:       "missing job is not found",
			method:     http.MethodPost,
			path:       "/api/candidates",
			body:       map[string]interface{}{"resumeText": "x", "jobId": "missing"},
			wantStatus: http.StatusNotFound,
			wantKind:   "NOT_FOUND",
		},
		{
			name: "scoring failure is bad gateway",
			setup: func() {
				env.scorer.err = apperrors.ScoringUnavailable("scoring service unreachable", nil)
			},
			method:     http.MethodPost,
			path:       "/api/candidates",
			body:       map[string]interface{}{"resumeText": "x", "jobId": jobID, "email": "a@b.c", "name": "A"},
			wantStatus: http.StatusBadGateway,
			wantKind:   "SCORING_UNAVAILABLE",
		},
		{
			name:       "bad body is validation",
			method:     http.MethodPost,
			path:       "/api/candidates",
			body:       map[string]interface{}{"jobId": jobID},
			wantStatus: http.StatusBadRequest,
			wantKind:   "INVALID_INPUT",
		},
		{
			name:       "bad filter is validation",
			method:     http.MethodGet,
			path:       "/api/candidates?minScore=high",
			wantStatus: http.StatusBadRequest,
			wantKind:   "INVALID_INPUT",
		},
		{
			name:       "unknown candidate is not found",
			method:     http.MethodGet,
			path:       "/api/candidates/nope",
			wantStatus: http.StatusNotFound,
			wantKind:   "NOT_FOUND",
		},
		{
			name:       "invalid status is validation",
			method:     http.MethodPatch,
			path:       "/api/candidates/nope/status",
			body:       map[string]interface{}{"status": "archived"},
			wantStatus: http.StatusBadRequest,
			wantKind:   "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.scorer.err = nil
			if tt.setup != nil {
				tt.setup()
			}
			w := env.do(t, tt.method, tt.path, tt.body, true)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if resp["error"] != tt.wantKind {
				t.Errorf("error kind = %q, want %q", resp["error"], tt.wantKind)
			}
			if resp["message"] == "" {
				t.Error("error payload missing human-readable message")
			}
		})
	}
}

func TestJobOwnerScoping(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.createJob(t)

	// A second recruiter cannot see the first one's posting.
	other := &models.User{Email: "other@example.com", Name: "Other", APIToken: "other-token"}
	if err := env.db.Create(other).Error; err != nil {
		t.Fatalf("seeding second user: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil)
	req.Header.Set("Authorization", "Bearer other-token")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("other owner's fetch status = %d, want 404", w.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	listReq.Header.Set("Authorization", "Bearer other-token")
	lw := httptest.NewRecorder()
	env.router.ServeHTTP(lw, listReq)
	var listResp struct {
		Jobs []models.Job `json:"jobs"`
	}
	if err := json.Unmarshal(lw.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(listResp.Jobs) != 0 {
		t.Errorf("other owner sees %d jobs, want 0", len(listResp.Jobs))
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.createJob(t)

	w := env.do(t, http.MethodPost, "/api/candidates", map[string]interface{}{
		"resumeText": "resume", "jobId": jobID, "name": "A", "email": "a@b.c",
	}, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create candidate: %d", w.Code)
	}

	aw := env.do(t, http.MethodGet, "/api/analytics?jobId="+jobID, nil, true)
	if aw.Code != http.StatusOK {
		t.Fatalf("analytics status = %d", aw.Code)
	}
	var resp struct {
		Summary struct {
			TotalCandidates int64            `json:"totalCandidates"`
			AverageScore    float64          `json:"averageScore"`
			StatusCounts    map[string]int64 `json:"statusCounts"`
		} `json:"summary"`
		TopSkills []services.SkillCount `json:"topSkills"`
	}
	if err := json.Unmarshal(aw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding analytics: %v", err)
	}
	if resp.Summary.TotalCandidates != 1 {
		t.Errorf("TotalCandidates = %d, want 1", resp.Summary.TotalCandidates)
	}
	if resp.Summary.AverageScore != 8.5 {
		t.Errorf("AverageScore = %v, want 8.5", resp.Summary.AverageScore)
	}
	if len(resp.Summary.StatusCounts) != 6 {
		t.Errorf("StatusCounts entries = %d, want 6", len(resp.Summary.StatusCounts))
	}
}
