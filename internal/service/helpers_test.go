package service

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-triage/internal/classifier"
	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/observability"
	"github.com/spec-kit/civic-triage/internal/repository"
	"github.com/spec-kit/civic-triage/internal/repository/memory"
	"github.com/spec-kit/civic-triage/internal/storage"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

var (
	citizen = domain.Actor{ID: "citizen-1", Role: domain.RoleCitizen, DisplayName: "Priya"}
	admin   = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin, DisplayName: "Ops"}
)

// tickClock advances one second per call.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickClock() *tickClock {
	return &tickClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// stubModel replies with reply, or fails with err on every call.
type stubModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (m *stubModel) Generate(_ context.Context, _ classifier.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.reply, m.err
}

func (m *stubModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type failingImages struct {
	storage.ImageStore
	puts int
}

func (f *failingImages) Put(context.Context, string, []byte) (string, error) {
	f.puts++
	return "", errors.New("bucket unavailable")
}

type failingIssues struct {
	repository.IssueRepository
	createErr error
	updateErr error
}

func (f *failingIssues) Create(ctx context.Context, issue *domain.Issue) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.IssueRepository.Create(ctx, issue)
}

func (f *failingIssues) Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.IssueRepository.Update(ctx, id, patch)
}

type recordingClassifier struct {
	calls int
}

func (r *recordingClassifier) Classify(context.Context, string, string) domain.Classification {
	r.calls++
	return domain.Classification{Category: domain.CategoryGarbage, Confidence: 70}
}

type fixture struct {
	store   *memory.Store
	images  *storage.FileStore
	model   *stubModel
	metrics *observability.Metrics
	clock   *tickClock
	intake  *IntakeService
	triage  *TriageService
	routing *RoutingService
	query   *QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	images, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		store:   memory.NewSeeded(),
		images:  images,
		model:   &stubModel{reply: "Category: Other, Confidence: 10"},
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
		clock:   newTickClock(),
	}
	f.store.SetClock(f.clock.Now)

	cls := classifier.New(f.model, images, nil, f.metrics, classifier.Options{
		Timeout:      time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})
	f.intake = NewIntakeService(IntakeDependencies{
		IssueRepo:     f.store.Issues(),
		ProfileRepo:   f.store.Profiles(),
		Images:        images,
		Classifier:    cls,
		Metrics:       f.metrics,
		MaxImageBytes: 1 << 20,
	})
	f.triage = NewTriageService(TriageDependencies{
		IssueRepo: f.store.Issues(),
		Metrics:   f.metrics,
		Clock:     f.clock.Now,
	})
	f.routing = NewRoutingService(RoutingDependencies{
		IssueRepo:      f.store.Issues(),
		DepartmentRepo: f.store.Departments(),
		Metrics:        f.metrics,
		Clock:          f.clock.Now,
	})
	f.query = NewQueryService(QueryDependencies{
		IssueRepo:      f.store.Issues(),
		DepartmentRepo: f.store.Departments(),
	})
	return f
}

func validInput() SubmitInput {
	return SubmitInput{
		Title:       "Pothole",
		Description: "Large pothole on Main Street",
		Image:       pngBytes,
		Latitude:    40.7128,
		Longitude:   -74.006,
		Address:     "Main Street, Springfield",
	}
}

func (f *fixture) submit(t *testing.T, actor domain.Actor) *domain.Issue {
	t.Helper()
	issue, err := f.intake.Submit(context.Background(), actor, validInput())
	require.NoError(t, err)
	return issue
}

func networkErr() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}
