package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/repository"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

func TestSubmit_ClassifiedPothole(t *testing.T) {
	f := newFixture(t)
	f.model.reply = "Category: Pothole, Confidence: 92"

	issue := f.submit(t, citizen)

	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, citizen.ID, issue.ReporterID)
	assert.Equal(t, domain.CategoryPothole, issue.Category)
	assert.Equal(t, 92, issue.Confidence)
	assert.Equal(t, domain.IssueStatusPending, issue.Status)
	assert.Nil(t, issue.DepartmentID)
	assert.Nil(t, issue.AssignedAt)
	assert.Nil(t, issue.ResolvedAt)
	assert.Equal(t, "Main Street, Springfield", issue.Location.Address)

	stored, err := f.store.Issues().GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryPothole, stored.Category)
	assert.Equal(t, 92, stored.Confidence)

	img, err := f.images.Get(context.Background(), issue.ImageRef)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, img.Data)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmissionsTotal.WithLabelValues(SubmissionCreated)))
}

func TestSubmit_NetworkErrorFallsBack(t *testing.T) {
	f := newFixture(t)
	f.model.err = networkErr()

	issue := f.submit(t, citizen)

	assert.Equal(t, domain.CategoryOther, issue.Category)
	assert.Equal(t, 0, issue.Confidence)
	assert.Equal(t, domain.IssueStatusPending, issue.Status)
	assert.Equal(t, 2, f.model.callCount())

	mine, err := f.query.ListMine(context.Background(), citizen)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, issue.ID, mine[0].ID)
}

func TestSubmit_ModelOutputAlwaysNormalized(t *testing.T) {
	replies := []string{
		"Category: Pothole, Confidence: 250",
		"Category: Pothole, Confidence: -3",
		"Category: Sinkhole, Confidence: 77",
		"Category: Garbage",
		"I cannot tell what this is.",
		"",
		"Category: water leakage, Confidence: 99999999999999999999",
	}
	for _, reply := range replies {
		t.Run(reply, func(t *testing.T) {
			f := newFixture(t)
			f.model.reply = reply

			issue := f.submit(t, citizen)
			assert.GreaterOrEqual(t, issue.Confidence, 0)
			assert.LessOrEqual(t, issue.Confidence, 100)
			assert.Contains(t, domain.Categories, issue.Category)
		})
	}
}

func TestSubmit_ValidationErrors(t *testing.T) {
	cases := map[string]func(*SubmitInput){
		"empty title":        func(in *SubmitInput) { in.Title = "" },
		"blank description":  func(in *SubmitInput) { in.Description = "   " },
		"missing image":      func(in *SubmitInput) { in.Image = nil },
		"empty image":        func(in *SubmitInput) { in.Image = []byte{} },
		"not an image":       func(in *SubmitInput) { in.Image = []byte("just some text") },
		"latitude range":     func(in *SubmitInput) { in.Latitude = 91 },
		"longitude range":    func(in *SubmitInput) { in.Longitude = -181 },
		"missing address":    func(in *SubmitInput) { in.Address = "" },
		"image over the cap": func(in *SubmitInput) { in.Image = append(append([]byte{}, pngBytes...), make([]byte, 1<<20)...) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			input := validInput()
			mutate(&input)

			_, err := f.intake.Submit(context.Background(), citizen, input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), err.Error())
			assert.Zero(t, f.model.callCount())

			all, err := f.store.Issues().ListAll(context.Background(), repository.IssueFilter{})
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestSubmit_UploadFailure(t *testing.T) {
	f := newFixture(t)
	images := &failingImages{ImageStore: f.images}
	cls := &recordingClassifier{}
	svc := NewIntakeService(IntakeDependencies{
		IssueRepo:  f.store.Issues(),
		Images:     images,
		Classifier: cls,
		Metrics:    f.metrics,
	})

	_, err := svc.Submit(context.Background(), citizen, validInput())
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeUpload, de.Code)
	assert.True(t, de.Retryable())
	assert.Equal(t, 1, images.puts)
	assert.Zero(t, cls.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmissionsTotal.WithLabelValues(SubmissionUploadFailed)))
}

func TestSubmit_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewIntakeService(IntakeDependencies{
		IssueRepo:  &failingIssues{IssueRepository: f.store.Issues(), createErr: errors.New("connection reset")},
		Images:     f.images,
		Classifier: &recordingClassifier{},
		Metrics:    f.metrics,
	})

	_, err := svc.Submit(context.Background(), citizen, validInput())
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodePersistence, de.Code)
	assert.True(t, de.Retryable())
	assert.ErrorContains(t, err, "connection reset")
}

func TestSubmit_RequiresActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.intake.Submit(context.Background(), domain.Actor{}, validInput())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestSubmit_TrimsTextAndRecordsReporterName(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	input.Title = "  Streetlight out  "
	input.Address = " 5th Ave "

	issue, err := f.intake.Submit(context.Background(), citizen, input)
	require.NoError(t, err)
	assert.Equal(t, "Streetlight out", issue.Title)
	assert.Equal(t, "5th Ave", issue.Location.Address)
	assert.Equal(t, "Priya", issue.ReporterName)

	all, err := f.query.ListAll(context.Background(), admin, repository.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Priya", all[0].ReporterName)
}
