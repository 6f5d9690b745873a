package domain

import (
	"strings"
	"time"
)

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "pending"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
)

// ParseIssueStatus normalizes a wire value. The hyphenated "in-progress"
// spelling used by older clients is accepted.
func ParseIssueStatus(s string) (IssueStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return IssueStatusPending, true
	case "in_progress", "in-progress":
		return IssueStatusInProgress, true
	case "resolved":
		return IssueStatusResolved, true
	}
	return "", false
}

// Location is where the reporter observed the problem.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}

// Issue is the aggregate for a citizen report.
type Issue struct {
	ID           string
	ReporterID   string
	Title        string
	Description  string
	ImageRef     string
	Location     Location
	Category     Category
	Confidence   int
	Status       IssueStatus
	DepartmentID *string
	CreatedAt    time.Time
	AssignedAt   *time.Time
	ResolvedAt   *time.Time

	// Read-side joins, filled by listings and updates.
	DepartmentName *string
	ReporterName   string
}

// IssuePatch is a partial update applied atomically to one issue.
// Nil fields are left untouched. ClearResolvedAt takes precedence over ResolvedAt.
type IssuePatch struct {
	Status          *IssueStatus
	ResolvedAt      *time.Time
	ClearResolvedAt bool
	DepartmentID    *string
	AssignedAt      *time.Time
}

// Apply mutates issue in place according to the patch.
func (p IssuePatch) Apply(issue *Issue) {
	if p.Status != nil {
		issue.Status = *p.Status
	}
	if p.ClearResolvedAt {
		issue.ResolvedAt = nil
	} else if p.ResolvedAt != nil {
		t := *p.ResolvedAt
		issue.ResolvedAt = &t
	}
	if p.DepartmentID != nil {
		id := *p.DepartmentID
		issue.DepartmentID = &id
	}
	if p.AssignedAt != nil {
		t := *p.AssignedAt
		issue.AssignedAt = &t
	}
}
