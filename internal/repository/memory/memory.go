// Package memory provides in-memory implementations of the repository
// interfaces. Used when no database is configured and in tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/repository"
)

// DefaultDepartments mirrors the seed migration.
var DefaultDepartments = []string{
	"Roads & Infrastructure",
	"Street Lighting",
	"Sanitation",
	"Water Supply",
	"Traffic Management",
	"Parks & Recreation",
	"Stormwater & Drainage",
}

type storedIssue struct {
	issue domain.Issue
	seq   uint64
}

// Store holds issues, departments and profiles in memory. All reads return copies.
type Store struct {
	mu          sync.RWMutex
	issues      map[string]*storedIssue
	departments map[string]domain.Department
	profiles    map[string]string // reporter ID -> display name
	seq         uint64
	now         func() time.Time
}

// New initializes an empty Store.
func New() *Store {
	return &Store{
		issues:      make(map[string]*storedIssue),
		departments: make(map[string]domain.Department),
		profiles:    make(map[string]string),
		now:         time.Now,
	}
}

// NewSeeded returns a Store preloaded with DefaultDepartments.
func NewSeeded() *Store {
	s := New()
	for _, name := range DefaultDepartments {
		s.AddDepartment(name)
	}
	return s
}

// SetClock overrides the creation timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddDepartment registers a department and returns it.
func (s *Store) AddDepartment(name string) domain.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	dept := domain.Department{ID: uuid.NewString(), Name: name}
	s.departments[dept.ID] = dept
	return dept
}

// Issues returns the issue repository view.
func (s *Store) Issues() repository.IssueRepository { return issueRepo{s} }

// Departments returns the department repository view.
func (s *Store) Departments() repository.DepartmentRepository { return departmentRepo{s} }

// Profiles returns the profile repository view.
func (s *Store) Profiles() repository.ProfileRepository { return profileRepo{s} }

type issueRepo struct{ s *Store }

func (r issueRepo) Create(_ context.Context, issue *domain.Issue) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	issue.ID = uuid.NewString()
	issue.CreatedAt = s.now().UTC()
	s.seq++
	s.issues[issue.ID] = &storedIssue{issue: copyIssue(*issue), seq: s.seq}
	return nil
}

func (r issueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	issue := s.joined(stored.issue)
	return &issue, nil
}

func (r issueRepo) ListForReporter(_ context.Context, reporterID string) ([]domain.Issue, error) {
	return r.s.list(func(i *domain.Issue) bool { return i.ReporterID == reporterID }), nil
}

func (r issueRepo) ListAll(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	return r.s.list(func(i *domain.Issue) bool {
		if filter.Status != nil && i.Status != *filter.Status {
			return false
		}
		if filter.Category != nil && i.Category != *filter.Category {
			return false
		}
		return true
	}), nil
}

func (r issueRepo) Update(_ context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&stored.issue)
	issue := s.joined(stored.issue)
	return &issue, nil
}

func (s *Store) list(keep func(*domain.Issue) bool) []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*storedIssue, 0, len(s.issues))
	for _, stored := range s.issues {
		if keep(&stored.issue) {
			matched = append(matched, stored)
		}
	}
	slices.SortFunc(matched, func(a, b *storedIssue) int {
		if c := b.issue.CreatedAt.Compare(a.issue.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	result := make([]domain.Issue, 0, len(matched))
	for _, stored := range matched {
		result = append(result, s.joined(stored.issue))
	}
	return result
}

// joined returns a copy of issue with read-side names filled. Callers hold s.mu.
func (s *Store) joined(issue domain.Issue) domain.Issue {
	cp := copyIssue(issue)
	cp.ReporterName = s.profiles[cp.ReporterID]
	cp.DepartmentName = nil
	if cp.DepartmentID != nil {
		if dept, ok := s.departments[*cp.DepartmentID]; ok {
			name := dept.Name
			cp.DepartmentName = &name
		}
	}
	return cp
}

func copyIssue(issue domain.Issue) domain.Issue {
	cp := issue
	if issue.DepartmentID != nil {
		v := *issue.DepartmentID
		cp.DepartmentID = &v
	}
	if issue.DepartmentName != nil {
		v := *issue.DepartmentName
		cp.DepartmentName = &v
	}
	if issue.AssignedAt != nil {
		v := *issue.AssignedAt
		cp.AssignedAt = &v
	}
	if issue.ResolvedAt != nil {
		v := *issue.ResolvedAt
		cp.ResolvedAt = &v
	}
	return cp
}

type departmentRepo struct{ s *Store }

func (r departmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	dept, ok := r.s.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &dept, nil
}

func (r departmentRepo) List(_ context.Context) ([]domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Department, 0, len(r.s.departments))
	for _, dept := range r.s.departments {
		result = append(result, dept)
	}
	slices.SortFunc(result, func(a, b domain.Department) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

type profileRepo struct{ s *Store }

func (r profileRepo) Upsert(_ context.Context, actor domain.Actor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if actor.DisplayName != "" || r.s.profiles[actor.ID] == "" {
		r.s.profiles[actor.ID] = actor.DisplayName
	}
	return nil
}
