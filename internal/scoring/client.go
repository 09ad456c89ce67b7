package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/apperrors"
	"github.com/talentgate/talentgate/internal/models"
)

// ScoreRequest is the outbound contract to the scoring collaborator.
type ScoreRequest struct {
	ResumeText      string   `json:"resume_text"`
	JobDescription  string   `json:"job_description"`
	JobRequirements []string `json:"job_requirements"`
}

// ExtractedProfile carries contact and history fields the collaborator
// pulled out of the resume text. All fields are optional.
type ExtractedProfile struct {
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	ExperienceYears *int     `json:"experience_years,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Education       []string `json:"education,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	Companies       []string `json:"companies,omitempty"`
}

// ScoreResult is the collaborator's verdict for one resume against one job.
type ScoreResult struct {
	OverallScore       float64               `json:"overall_score"`
	ScoreBreakdown     models.ScoreBreakdown `json:"score_breakdown"`
	ExtractedSkills    []string              `json:"extracted_skills"`
	MissingSkills      []string              `json:"missing_skills"`
	Summary            string                `json:"summary"`
	Recommendation     models.Recommendation `json:"recommendation"`
	Confidence         float64               `json:"confidence"`
	InterviewQuestions []string              `json:"interview_questions"`
	ExtractedProfile   *ExtractedProfile     `json:"extracted_profile,omitempty"`

	// Call metadata, filled by the client rather than the wire payload.
	ProcessingTime time.Duration `json:"-"`
	ServiceVersion string        `json:"-"`
}

// Scorer abstracts the external collaborator so the pipeline and its
// tests can substitute a fake.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error)
}

type httpScorer struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewHTTPScorer builds the production client. The timeout bounds the
// whole call; on expiry the pipeline fails cleanly with no partial write.
func NewHTTPScorer(baseURL string, timeout time.Duration, logger *zap.Logger) Scorer {
	return &httpScorer{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (s *httpScorer) Score(ctx context.Context, scoreReq ScoreRequest) (*ScoreResult, error) {
	body, err := json.Marshal(scoreReq)
	if err != nil {
		return nil, apperrors.Internal("encoding score request", err)
	}

	url := s.baseURL + "/score/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Internal("creating score request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("scoring service call failed", zap.String("url", url), zap.Error(err))
		return nil, apperrors.ScoringUnavailable("scoring service unreachable", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()
	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("scoring service returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("elapsed", elapsed))
		return nil, apperrors.ScoringUnavailable(
			fmt.Sprintf("scoring service returned status %d", resp.StatusCode), nil)
	}

	var result ScoreResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.logger.Error("failed to decode scoring response", zap.Error(err))
		return nil, apperrors.ScoringUnavailable("decoding scoring response", err)
	}

	result.ProcessingTime = elapsed
	result.ServiceVersion = resp.Header.Get("X-Service-Version")

	s.logger.Debug("scored resume",
		zap.Float64("overall_score", result.OverallScore),
		zap.String("recommendation", string(result.Recommendation)),
		zap.Duration("elapsed", elapsed))

	return &result, nil
}
