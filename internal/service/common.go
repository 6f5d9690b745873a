package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/repository"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func requireAdmin(actor domain.Actor) error {
	if actor.ID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// checkIssueID rejects ids that cannot name a stored issue.
func checkIssueID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFound("issue", map[string]any{"issue_id": id})
	}
	return nil
}

func mapIssueError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("issue", map[string]any{"issue_id": id})
	}
	return apperrors.NewPersistenceError(err)
}
