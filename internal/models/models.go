package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StringList is a JSON-backed list column. Works on both postgres and sqlite.
type StringList = datatypes.JSONSlice[string]

// JobStatus is the publication state of a posting.
type JobStatus string

const (
	JobDraft  JobStatus = "draft"
	JobActive JobStatus = "active"
	JobPaused JobStatus = "paused"
	JobClosed JobStatus = "closed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobDraft, JobActive, JobPaused, JobClosed:
		return true
	}
	return false
}

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full-time"
	EmploymentPartTime   EmploymentType = "part-time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
)

func (t EmploymentType) Valid() bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship:
		return true
	}
	return false
}

type ExperienceLevel string

const (
	LevelJunior    ExperienceLevel = "junior"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelJunior, LevelMid, LevelSenior, LevelLead, LevelExecutive:
		return true
	}
	return false
}

// CandidateStatus is the recruiter-facing lifecycle state of a submission.
type CandidateStatus string

const (
	StatusNew         CandidateStatus = "new"
	StatusReviewed    CandidateStatus = "reviewed"
	StatusShortlisted CandidateStatus = "shortlisted"
	StatusInterviewed CandidateStatus = "interviewed"
	StatusRejected    CandidateStatus = "rejected"
	StatusHired       CandidateStatus = "hired"
)

// AllCandidateStatuses lists every member in display order. Analytics
// zero-fills counts from this list.
var AllCandidateStatuses = []CandidateStatus{
	StatusNew, StatusReviewed, StatusShortlisted,
	StatusInterviewed, StatusRejected, StatusHired,
}

func (s CandidateStatus) Valid() bool {
	for _, known := range AllCandidateStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Recommendation is the categorical verdict produced by the scoring service.
type Recommendation string

const (
	StrongMatch   Recommendation = "STRONG_MATCH"
	GoodMatch     Recommendation = "GOOD_MATCH"
	ModerateMatch Recommendation = "MODERATE_MATCH"
	WeakMatch     Recommendation = "WEAK_MATCH"
	NoMatch       Recommendation = "NO_MATCH"
)

var AllRecommendations = []Recommendation{
	StrongMatch, GoodMatch, ModerateMatch, WeakMatch, NoMatch,
}

func (r Recommendation) Valid() bool {
	for _, known := range AllRecommendations {
		if r == known {
			return true
		}
	}
	return false
}

// User is the minimal identity record resolved by the auth middleware.
// Registration and token issuance live outside this service.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Name     string `json:"name"`
	APIToken string `gorm:"uniqueIndex;not null" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type SalaryRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `gorm:"default:USD" json:"currency"`
}

type Job struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title        string     `gorm:"not null" json:"title"`
	Company      string     `gorm:"not null" json:"company"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	Requirements StringList `json:"requirements"`
	Skills       StringList `json:"skills"`
	Location     string     `json:"location"`

	SalaryRange     SalaryRange     `gorm:"embedded;embeddedPrefix:salary_" json:"salary_range"`
	EmploymentType  EmploymentType  `gorm:"default:'full-time'" json:"employment_type"`
	ExperienceLevel ExperienceLevel `gorm:"default:'mid'" json:"experience_level"`
	Status          JobStatus       `gorm:"index;default:'draft'" json:"status"`

	PostedBy            string     `gorm:"index;not null;size:36" json:"posted_by"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`

	// Cached projection of the live candidate count. Recomputed after each
	// create and reconciled in the background; may lag briefly.
	CandidateCount int64 `json:"candidate_count"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// Validate rejects malformed postings before they reach the store.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(j.Company) == "" {
		return fmt.Errorf("company is required")
	}
	if strings.TrimSpace(j.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if j.EmploymentType != "" && !j.EmploymentType.Valid() {
		return fmt.Errorf("invalid employment type %q", j.EmploymentType)
	}
	if j.ExperienceLevel != "" && !j.ExperienceLevel.Valid() {
		return fmt.Errorf("invalid experience level %q", j.ExperienceLevel)
	}
	if j.Status != "" && !j.Status.Valid() {
		return fmt.Errorf("invalid job status %q", j.Status)
	}
	return nil
}

// ScoreBreakdown holds the four sub-scores behind the overall score,
// each bounded to [0,1].
type ScoreBreakdown struct {
	SkillOverlap       float64 `json:"skill_overlap"`
	SemanticSimilarity float64 `json:"semantic_similarity"`
	RoleRelevance      float64 `json:"role_relevance"`
	SeniorityMatch     float64 `json:"seniority_match"`
}

func (b ScoreBreakdown) Validate() error {
	components := []struct {
		name  string
		value float64
	}{
		{"skill_overlap", b.SkillOverlap},
		{"semantic_similarity", b.SemanticSimilarity},
		{"role_relevance", b.RoleRelevance},
		{"seniority_match", b.SeniorityMatch},
	}
	for _, c := range components {
		if c.value < 0 || c.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", c.name, c.value)
		}
	}
	return nil
}

type Candidate struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"not null;uniqueIndex:idx_candidates_email_job" json:"email"`
	Phone string `json:"phone"`

	ResumeText       string    `gorm:"type:text;not null" json:"resume_text"`
	ResumeFileName   string    `json:"resume_file_name"`
	ResumeUploadDate time.Time `json:"resume_upload_date"`

	// Extracted profile
	Skills          StringList `json:"skills"`
	ExperienceYears *int       `json:"experience_years,omitempty"`
	Education       StringList `json:"education"`
	Roles           StringList `json:"roles"`
	Companies       StringList `json:"companies"`

	JobID string `gorm:"not null;size:36;index;uniqueIndex:idx_candidates_email_job" json:"job_id"`
	Job   *Job   `gorm:"foreignKey:JobID" json:"job,omitempty"`

	// Scoring results
	OverallScore       float64        `gorm:"index" json:"overall_score"`
	ScoreBreakdown     ScoreBreakdown `gorm:"embedded;embeddedPrefix:score_" json:"score_breakdown"`
	ExtractedSkills    StringList     `json:"extracted_skills"`
	MissingSkills      StringList     `json:"missing_skills"`
	AISummary          string         `gorm:"type:text;not null" json:"ai_summary"`
	Recommendation     Recommendation `gorm:"index;not null" json:"recommendation"`
	Confidence         float64        `json:"confidence"`
	InterviewQuestions StringList     `json:"interview_questions"`

	// Recruiter feedback
	RecruiterNotes  string          `gorm:"type:text" json:"recruiter_notes"`
	Status          CandidateStatus `gorm:"index;default:'new'" json:"status"`
	RecruiterRating *int            `json:"recruiter_rating,omitempty"`

	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy string     `gorm:"size:36" json:"reviewed_by,omitempty"`

	// Scoring call metadata
	ProcessingTime   float64 `json:"processing_time"`
	MLServiceVersion string  `json:"ml_service_version,omitempty"`
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.ResumeUploadDate.IsZero() {
		c.ResumeUploadDate = time.Now().UTC()
	}
	return nil
}

// Validate enforces presence and bound invariants at creation time.
// Out-of-range values are rejected, never clamped.
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(c.ResumeText) == "" {
		return fmt.Errorf("resume text is required")
	}
	if c.JobID == "" {
		return fmt.Errorf("job id is required")
	}
	if c.OverallScore < 0 || c.OverallScore > 10 {
		return fmt.Errorf("overall score must be between 0 and 10, got %v", c.OverallScore)
	}
	if err := c.ScoreBreakdown.Validate(); err != nil {
		return err
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %v", c.Confidence)
	}
	if !c.Recommendation.Valid() {
		return fmt.Errorf("invalid recommendation %q", c.Recommendation)
	}
	if c.Status != "" && !c.Status.Valid() {
		return fmt.Errorf("invalid candidate status %q", c.Status)
	}
	if c.RecruiterRating != nil && (*c.RecruiterRating < 1 || *c.RecruiterRating > 5) {
		return fmt.Errorf("recruiter rating must be between 1 and 5, got %d", *c.RecruiterRating)
	}
	if c.ExperienceYears != nil && *c.ExperienceYears < 0 {
		return fmt.Errorf("experience years cannot be negative")
	}
	return nil
}

// NormalizeEmail lowercases and trims the address so the (email, job)
// uniqueness constraint is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
