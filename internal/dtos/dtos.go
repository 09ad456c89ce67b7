package dtos

import "time"

type SalaryRangeDTO struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type CreateJobRequest struct {
	Title        string   `json:"title" binding:"required"`
	Company      string   `json:"company" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	Requirements []string `json:"requirements"`
	Skills       []string `json:"skills"`
	Location     string   `json:"location"`

	SalaryRange         *SalaryRangeDTO `json:"salary_range"`
	EmploymentType      string          `json:"employment_type"`
	ExperienceLevel     string          `json:"experience_level"`
	Status              string          `json:"status"`
	ApplicationDeadline *time.Time      `json:"application_deadline"`
}

type CreateCandidateRequest struct {
	ResumeText     string `json:"resumeText" binding:"required"`
	JobID          string `json:"jobId" binding:"required"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	ResumeFileName string `json:"resumeFileName"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
	Rating *int    `json:"rating"`
}
