package dto

import (
	"time"

	"github.com/spec-kit/civic-triage/internal/domain"
)

// LocationResponse is where the issue was reported.
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// IssueResponse is the wire form of an issue.
type IssueResponse struct {
	ID             string             `json:"id"`
	ReporterID     string             `json:"reporter_id"`
	ReporterName   string             `json:"reporter_name,omitempty"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	ImageURL       string             `json:"image_url"`
	Location       LocationResponse   `json:"location"`
	Category       domain.Category    `json:"category"`
	Confidence     int                `json:"confidence"`
	Status         domain.IssueStatus `json:"status"`
	DepartmentID   *string            `json:"department_id"`
	DepartmentName *string            `json:"department_name"`
	CreatedAt      time.Time          `json:"created_at"`
	AssignedAt     *time.Time         `json:"assigned_at"`
	ResolvedAt     *time.Time         `json:"resolved_at"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignDepartmentRequest payload.
type AssignDepartmentRequest struct {
	DepartmentID string `json:"department_id"`
}

// DepartmentResponse is an assignable department.
type DepartmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
