package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-triage/internal/domain"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// IssueFilter narrows the privileged listing.
type IssueFilter struct {
	Status   *domain.IssueStatus
	Category *domain.Category
}

// IssueRepository is the persistence contract the triage pipeline relies on.
// Listings are ordered by creation time, newest first, and carry the joined
// department and reporter names.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListForReporter(ctx context.Context, reporterID string) ([]domain.Issue, error)
	ListAll(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueSelect = `
        SELECT i.id::text, i.reporter_id, i.title, i.description, i.image_ref,
               i.latitude, i.longitude, i.address, i.category, i.confidence, i.status,
               i.department_id::text, i.created_at, i.assigned_at, i.resolved_at,
               d.name, COALESCE(p.full_name, '')
        FROM %s i
        LEFT JOIN departments d ON d.id = i.department_id
        LEFT JOIN profiles p ON p.id = i.reporter_id`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (reporter_id, title, description, image_ref, latitude, longitude, address,
                            category, confidence, status, department_id, assigned_at, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id::text, created_at`
	return r.pool.QueryRow(ctx, query,
		issue.ReporterID,
		issue.Title,
		issue.Description,
		issue.ImageRef,
		issue.Location.Lat,
		issue.Location.Lng,
		issue.Location.Address,
		issue.Category,
		issue.Confidence,
		issue.Status,
		issue.DepartmentID,
		issue.AssignedAt,
		issue.ResolvedAt,
	).Scan(&issue.ID, &issue.CreatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(issueSelect, "issues") + ` WHERE i.id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *issueRepository) ListForReporter(ctx context.Context, reporterID string) ([]domain.Issue, error) {
	query := fmt.Sprintf(issueSelect, "issues") + ` WHERE i.reporter_id=$1 ORDER BY i.created_at DESC`
	rows, err := r.pool.Query(ctx, query, reporterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListAll(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("i.status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("i.category=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY i.created_at DESC`,
		fmt.Sprintf(issueSelect, "issues"), strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// Update applies the patch in a single statement and returns the joined
// record as it was committed.
func (r *issueRepository) Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	sets := []string{}
	args := []any{}

	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.ClearResolvedAt {
		sets = append(sets, "resolved_at=NULL")
	} else if patch.ResolvedAt != nil {
		args = append(args, *patch.ResolvedAt)
		sets = append(sets, fmt.Sprintf("resolved_at=$%d", len(args)))
	}
	if patch.DepartmentID != nil {
		args = append(args, *patch.DepartmentID)
		sets = append(sets, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if patch.AssignedAt != nil {
		args = append(args, *patch.AssignedAt)
		sets = append(sets, fmt.Sprintf("assigned_at=$%d", len(args)))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	updated := fmt.Sprintf(`(UPDATE issues SET %s WHERE id=$%d RETURNING *)`, strings.Join(sets, ", "), len(args))
	query := `WITH updated AS ` + updated + fmt.Sprintf(issueSelect, "updated")
	return r.fetchSingle(ctx, query, args...)
}

func (r *issueRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Issue, error) {
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return issue, nil
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(
		&issue.ID,
		&issue.ReporterID,
		&issue.Title,
		&issue.Description,
		&issue.ImageRef,
		&issue.Location.Lat,
		&issue.Location.Lng,
		&issue.Location.Address,
		&issue.Category,
		&issue.Confidence,
		&issue.Status,
		&issue.DepartmentID,
		&issue.CreatedAt,
		&issue.AssignedAt,
		&issue.ResolvedAt,
		&issue.DepartmentName,
		&issue.ReporterName,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	result := []domain.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}
