package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-triage/internal/api/dto"
	"github.com/spec-kit/civic-triage/internal/auth"
	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/repository"
	"github.com/spec-kit/civic-triage/internal/service"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

// AdminHandler serves the triage panel endpoints.
type AdminHandler struct {
	triage       *service.TriageService
	routing      *service.RoutingService
	query        *service.QueryService
	imageBaseURL string
}

// AdminHandlerDependencies bundles services for the admin endpoints.
type AdminHandlerDependencies struct {
	Triage       *service.TriageService
	Routing      *service.RoutingService
	Query        *service.QueryService
	ImageBaseURL string
}

// NewAdminHandler constructs handler.
func NewAdminHandler(deps AdminHandlerDependencies) *AdminHandler {
	return &AdminHandler{
		triage:       deps.Triage,
		routing:      deps.Routing,
		query:        deps.Query,
		imageBaseURL: deps.ImageBaseURL,
	}
}

// ListIssues GET /api/admin/issues?status=&category=.
func (h *AdminHandler) ListIssues(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter, err := parseIssueFilter(c)
	if err != nil {
		return err
	}
	issues, err := h.query.ListAll(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueList(issues, h.imageBaseURL)})
}

// UpdateStatus PATCH /api/admin/issues/:id/status.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", map[string]any{"status": "status is required"})
	}
	issue, err := h.triage.Transition(c.UserContext(), actor, c.Params("id"), domain.IssueStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue, h.imageBaseURL)})
}

// AssignDepartment PUT /api/admin/issues/:id/department.
func (h *AdminHandler) AssignDepartment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" {
		return apperrors.NewValidationError("department_id required", map[string]any{"department_id": "department_id is required"})
	}
	issue, err := h.routing.Assign(c.UserContext(), actor, c.Params("id"), req.DepartmentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue, h.imageBaseURL)})
}

// ListDepartments GET /api/admin/departments.
func (h *AdminHandler) ListDepartments(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	depts, err := h.query.ListDepartments(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for _, d := range depts {
		items = append(items, dto.DepartmentResponse{ID: d.ID, Name: d.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseIssueFilter(c *fiber.Ctx) (repository.IssueFilter, error) {
	var filter repository.IssueFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseIssueStatus(raw)
		if !ok {
			return filter, apperrors.NewValidationError("unknown status filter", map[string]any{"status": raw})
		}
		filter.Status = &status
	}
	if raw := c.Query("category"); raw != "" {
		category, ok := domain.LookupCategory(raw)
		if !ok {
			return filter, apperrors.NewValidationError("unknown category filter", map[string]any{"category": raw})
		}
		filter.Category = &category
	}
	return filter, nil
}
