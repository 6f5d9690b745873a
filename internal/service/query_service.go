package service

import (
	"context"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/repository"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

// QueryService serves the read side: a reporter's own issues, the admin
// listing and department reference data.
type QueryService struct {
	issues      repository.IssueRepository
	departments repository.DepartmentRepository
}

// QueryDependencies bundles repositories for listings.
type QueryDependencies struct {
	IssueRepo      repository.IssueRepository
	DepartmentRepo repository.DepartmentRepository
}

// NewQueryService constructs the service.
func NewQueryService(deps QueryDependencies) *QueryService {
	return &QueryService{issues: deps.IssueRepo, departments: deps.DepartmentRepo}
}

// ListMine returns the actor's own issues, newest first.
func (s *QueryService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Issue, error) {
	if actor.ID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	issues, err := s.issues.ListForReporter(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return issues, nil
}

// ListAll returns every issue matching filter, newest first, with joined names.
func (s *QueryService) ListAll(ctx context.Context, actor domain.Actor, filter repository.IssueFilter) ([]domain.Issue, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	issues, err := s.issues.ListAll(ctx, filter)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return issues, nil
}

// ListDepartments returns the assignable departments ordered by name.
func (s *QueryService) ListDepartments(ctx context.Context, actor domain.Actor) ([]domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return depts, nil
}
