package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-triage/internal/domain"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

func TestTransition_ResolveThenReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.submit(t, citizen)

	resolved, err := f.triage.Transition(ctx, admin, issue.ID, domain.IssueStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.False(t, resolved.ResolvedAt.Before(issue.CreatedAt))

	reopened, err := f.triage.Transition(ctx, admin, issue.ID, domain.IssueStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusPending, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)
}

func TestTransition_ResolvedAtTracksStatusAcrossSequences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.submit(t, citizen)

	sequence := []domain.IssueStatus{
		domain.IssueStatusInProgress,
		domain.IssueStatusResolved,
		domain.IssueStatusResolved,
		domain.IssueStatusInProgress,
		domain.IssueStatusResolved,
		domain.IssueStatusPending,
		domain.IssueStatusPending,
		domain.IssueStatusResolved,
	}
	for _, target := range sequence {
		updated, err := f.triage.Transition(ctx, admin, issue.ID, target)
		require.NoError(t, err)

		stored, err := f.store.Issues().GetByID(ctx, issue.ID)
		require.NoError(t, err)
		for _, got := range []*domain.Issue{updated, stored} {
			assert.Equal(t, target, got.Status)
			assert.Equal(t, target == domain.IssueStatusResolved, got.ResolvedAt != nil, "status %s", target)
		}
	}
}

func TestTransition_AcceptsLegacySpelling(t *testing.T) {
	f := newFixture(t)
	issue := f.submit(t, citizen)

	updated, err := f.triage.Transition(context.Background(), admin, issue.ID, domain.IssueStatus("in-progress"))
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusInProgress, updated.Status)
}

func TestTransition_KeepsDepartmentAndJoinsName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.submit(t, citizen)
	depts, err := f.store.Departments().List(ctx)
	require.NoError(t, err)

	_, err = f.routing.Assign(ctx, admin, issue.ID, depts[0].ID)
	require.NoError(t, err)

	updated, err := f.triage.Transition(ctx, admin, issue.ID, domain.IssueStatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, updated.DepartmentName)
	assert.Equal(t, depts[0].Name, *updated.DepartmentName)
	assert.Equal(t, "Priya", updated.ReporterName)
}

func TestTransition_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.submit(t, citizen)

	_, err := f.triage.Transition(ctx, citizen, issue.ID, domain.IssueStatusResolved)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.triage.Transition(ctx, domain.Actor{}, issue.ID, domain.IssueStatusResolved)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = f.triage.Transition(ctx, admin, issue.ID, domain.IssueStatus("closed"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.triage.Transition(ctx, admin, "not-a-uuid", domain.IssueStatusResolved)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.triage.Transition(ctx, admin, uuid.NewString(), domain.IssueStatusResolved)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	stored, err := f.store.Issues().GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusPending, stored.Status)
}

func TestTransition_StoreFailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	issue := f.submit(t, citizen)
	svc := NewTriageService(TriageDependencies{
		IssueRepo: &failingIssues{IssueRepository: f.store.Issues(), updateErr: errors.New("deadlock detected")},
	})

	_, err := svc.Transition(context.Background(), admin, issue.ID, domain.IssueStatusResolved)
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, apperrors.CodePersistence, de.Code)
	assert.True(t, de.Retryable())
}
