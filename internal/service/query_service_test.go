package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/repository"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

func TestListMine_ScopedAndNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := domain.Actor{ID: "citizen-2", Role: domain.RoleCitizen}

	first := f.submit(t, citizen)
	f.submit(t, other)
	second := f.submit(t, citizen)

	mine, err := f.query.ListMine(ctx, citizen)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
	for _, issue := range mine {
		assert.Equal(t, citizen.ID, issue.ReporterID)
	}
	assert.False(t, mine[0].CreatedAt.Before(mine[1].CreatedAt))
}

func TestListAll_AdminOnlyWithFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.model.reply = "Category: Pothole, Confidence: 90"
	pothole := f.submit(t, citizen)
	f.model.reply = "Category: Garbage, Confidence: 60"
	garbage := f.submit(t, citizen)
	_, err := f.triage.Transition(ctx, admin, garbage.ID, domain.IssueStatusResolved)
	require.NoError(t, err)

	_, err = f.query.ListAll(ctx, citizen, repository.IssueFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	all, err := f.query.ListAll(ctx, admin, repository.IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	resolved := domain.IssueStatusResolved
	byStatus, err := f.query.ListAll(ctx, admin, repository.IssueFilter{Status: &resolved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, garbage.ID, byStatus[0].ID)

	category := domain.CategoryPothole
	byCategory, err := f.query.ListAll(ctx, admin, repository.IssueFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, pothole.ID, byCategory[0].ID)
}

func TestListDepartments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	depts, err := f.query.ListDepartments(ctx, admin)
	require.NoError(t, err)
	require.NotEmpty(t, depts)
	for i := 1; i < len(depts); i++ {
		assert.LessOrEqual(t, depts[i-1].Name, depts[i].Name)
	}

	_, err = f.query.ListDepartments(ctx, citizen)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
