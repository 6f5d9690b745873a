package handlers

import (
	"github.com/spec-kit/civic-triage/internal/api/dto"
	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/storage"
)

func issueResponse(issue *domain.Issue, imageBaseURL string) dto.IssueResponse {
	return dto.IssueResponse{
		ID:           issue.ID,
		ReporterID:   issue.ReporterID,
		ReporterName: issue.ReporterName,
		Title:        issue.Title,
		Description:  issue.Description,
		ImageURL:     storage.PublicURL(imageBaseURL, issue.ImageRef),
		Location: dto.LocationResponse{
			Latitude:  issue.Location.Lat,
			Longitude: issue.Location.Lng,
			Address:   issue.Location.Address,
		},
		Category:       issue.Category,
		Confidence:     issue.Confidence,
		Status:         issue.Status,
		DepartmentID:   issue.DepartmentID,
		DepartmentName: issue.DepartmentName,
		CreatedAt:      issue.CreatedAt,
		AssignedAt:     issue.AssignedAt,
		ResolvedAt:     issue.ResolvedAt,
	}
}

func issueList(issues []domain.Issue, imageBaseURL string) []dto.IssueResponse {
	items := make([]dto.IssueResponse, 0, len(issues))
	for i := range issues {
		items = append(items, issueResponse(&issues[i], imageBaseURL))
	}
	return items
}
