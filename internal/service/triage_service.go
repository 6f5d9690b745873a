package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/observability"
	"github.com/spec-kit/civic-triage/internal/repository"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

// TriageService moves issues through their lifecycle.
type TriageService struct {
	issues  repository.IssueRepository
	metrics *observability.Metrics
	logger  *zap.Logger
	now     Clock
}

// TriageDependencies bundles collaborators for the state machine.
type TriageDependencies struct {
	IssueRepo repository.IssueRepository
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	Clock     Clock
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriageService{
		issues:  deps.IssueRepo,
		metrics: deps.Metrics,
		logger:  logger,
		now:     clockOrNow(deps.Clock),
	}
}

// Transition sets the status of an issue. Admins may move an issue between
// any two states. Entering resolved stamps ResolvedAt; every other target
// clears it in the same write.
func (s *TriageService) Transition(ctx context.Context, actor domain.Actor, issueID string, target domain.IssueStatus) (*domain.Issue, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status, ok := domain.ParseIssueStatus(string(target))
	if !ok {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{
			"status":  string(target),
			"allowed": []domain.IssueStatus{domain.IssueStatusPending, domain.IssueStatusInProgress, domain.IssueStatusResolved},
		})
	}
	if err := checkIssueID(issueID); err != nil {
		return nil, err
	}

	patch := domain.IssuePatch{Status: &status}
	if status == domain.IssueStatusResolved {
		at := s.now().UTC()
		patch.ResolvedAt = &at
	} else {
		patch.ClearResolvedAt = true
	}

	issue, err := s.issues.Update(ctx, issueID, patch)
	if err != nil {
		mapped := mapIssueError(err, issueID)
		if !apperrors.HasCode(mapped, apperrors.CodeNotFound) {
			s.logger.Error("status update failed", zap.String("issue_id", issueID), zap.Error(err))
		}
		return nil, mapped
	}

	s.metrics.RecordTransition(string(status))
	s.logger.Info("issue status changed",
		zap.String("issue_id", issueID),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.ID),
	)
	return issue, nil
}
