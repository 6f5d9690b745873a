package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/observability"
	"github.com/spec-kit/civic-triage/internal/repository"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

// Assignment outcomes recorded in metrics.
const (
	AssignmentAssigned         = "assigned"
	AssignmentInvalidReference = "invalid_department"
	AssignmentNotFound         = "not_found"
	AssignmentFailed           = "failed"
)

// RoutingService assigns issues to departments.
type RoutingService struct {
	issues      repository.IssueRepository
	departments repository.DepartmentRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         Clock
}

// RoutingDependencies bundles collaborators for routing.
type RoutingDependencies struct {
	IssueRepo      repository.IssueRepository
	DepartmentRepo repository.DepartmentRepository
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          Clock
}

// NewRoutingService creates the service.
func NewRoutingService(deps RoutingDependencies) *RoutingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutingService{
		issues:      deps.IssueRepo,
		departments: deps.DepartmentRepo,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         clockOrNow(deps.Clock),
	}
}

// Assign routes an issue to a department and stamps AssignedAt. Reassigning
// to the current department refreshes the timestamp. Status is untouched.
func (s *RoutingService) Assign(ctx context.Context, actor domain.Actor, issueID, departmentID string) (*domain.Issue, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := checkIssueID(issueID); err != nil {
		s.metrics.RecordAssignment(AssignmentNotFound)
		return nil, err
	}
	if err := s.checkDepartment(ctx, departmentID); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	issue, err := s.issues.Update(ctx, issueID, domain.IssuePatch{
		DepartmentID: &departmentID,
		AssignedAt:   &at,
	})
	if err != nil {
		mapped := mapIssueError(err, issueID)
		if apperrors.HasCode(mapped, apperrors.CodeNotFound) {
			s.metrics.RecordAssignment(AssignmentNotFound)
		} else {
			s.metrics.RecordAssignment(AssignmentFailed)
			s.logger.Error("department assignment failed", zap.String("issue_id", issueID), zap.Error(err))
		}
		return nil, mapped
	}

	s.metrics.RecordAssignment(AssignmentAssigned)
	s.logger.Info("issue assigned",
		zap.String("issue_id", issueID),
		zap.String("department_id", departmentID),
		zap.String("actor_id", actor.ID),
	)
	return issue, nil
}

func (s *RoutingService) checkDepartment(ctx context.Context, departmentID string) error {
	invalid := func() error {
		s.metrics.RecordAssignment(AssignmentInvalidReference)
		return apperrors.NewInvalidReference("department", map[string]any{"department_id": departmentID})
	}
	if _, err := uuid.Parse(departmentID); err != nil {
		return invalid()
	}
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid()
		}
		s.metrics.RecordAssignment(AssignmentFailed)
		return apperrors.NewPersistenceError(err)
	}
	return nil
}
