package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/observability"
	"github.com/spec-kit/civic-triage/internal/repository"
	"github.com/spec-kit/civic-triage/internal/storage"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
	"github.com/spec-kit/civic-triage/pkg/util/validation"
)

// Submission outcomes recorded in metrics.
const (
	SubmissionCreated           = "created"
	SubmissionInvalid           = "invalid"
	SubmissionUploadFailed      = "upload_failed"
	SubmissionPersistenceFailed = "persistence_failed"
)

// IssueClassifier labels a stored image. It never fails; degraded results
// come back as the fallback classification.
type IssueClassifier interface {
	Classify(ctx context.Context, imageRef, description string) domain.Classification
}

// IntakeService turns a citizen submission into a pending issue.
type IntakeService struct {
	issues        repository.IssueRepository
	profiles      repository.ProfileRepository
	images        storage.ImageStore
	classifier    IssueClassifier
	metrics       *observability.Metrics
	logger        *zap.Logger
	maxImageBytes int
}

// IntakeDependencies bundles collaborators for intake.
type IntakeDependencies struct {
	IssueRepo     repository.IssueRepository
	ProfileRepo   repository.ProfileRepository
	Images        storage.ImageStore
	Classifier    IssueClassifier
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	MaxImageBytes int
}

// SubmitInput is the raw submission. Text fields are trimmed before validation.
type SubmitInput struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Image       []byte  `json:"image" validate:"required,min=1"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address     string  `json:"address" validate:"required"`
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		issues:        deps.IssueRepo,
		profiles:      deps.ProfileRepo,
		images:        deps.Images,
		classifier:    deps.Classifier,
		metrics:       deps.Metrics,
		logger:        logger,
		maxImageBytes: deps.MaxImageBytes,
	}
}

// Submit validates the input, stores the image, classifies it and persists a
// pending issue. Classification problems never fail the submission. A stored
// image is left in place when the issue cannot be persisted.
func (s *IntakeService) Submit(ctx context.Context, actor domain.Actor, input SubmitInput) (*domain.Issue, error) {
	if actor.ID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Address = strings.TrimSpace(input.Address)
	if err := s.validate(input); err != nil {
		s.metrics.RecordSubmission(SubmissionInvalid)
		return nil, err
	}

	ref, err := s.images.Put(ctx, actor.ID, input.Image)
	if err != nil {
		s.logger.Error("image upload failed", zap.String("reporter_id", actor.ID), zap.Error(err))
		s.metrics.RecordSubmission(SubmissionUploadFailed)
		return nil, apperrors.NewUploadError(err)
	}

	if s.profiles != nil {
		if err := s.profiles.Upsert(ctx, actor); err != nil {
			s.logger.Warn("profile upsert failed", zap.String("reporter_id", actor.ID), zap.Error(err))
		}
	}

	classification := s.classifier.Classify(ctx, ref, input.Description)

	issue := &domain.Issue{
		ReporterID:  actor.ID,
		Title:       input.Title,
		Description: input.Description,
		ImageRef:    ref,
		Location: domain.Location{
			Lat:     input.Latitude,
			Lng:     input.Longitude,
			Address: input.Address,
		},
		Category:   classification.Category,
		Confidence: classification.Confidence,
		Status:     domain.IssueStatusPending,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		s.logger.Error("issue create failed",
			zap.String("reporter_id", actor.ID),
			zap.String("image_ref", ref),
			zap.Error(err),
		)
		s.metrics.RecordSubmission(SubmissionPersistenceFailed)
		return nil, apperrors.NewPersistenceError(err)
	}
	issue.ReporterName = actor.DisplayName

	s.metrics.RecordSubmission(SubmissionCreated)
	s.logger.Info("issue submitted",
		zap.String("issue_id", issue.ID),
		zap.String("reporter_id", actor.ID),
		zap.String("category", string(issue.Category)),
		zap.Int("confidence", issue.Confidence),
	)
	return issue, nil
}

func (s *IntakeService) validate(input SubmitInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if s.maxImageBytes > 0 && len(input.Image) > s.maxImageBytes {
		return apperrors.NewValidationError("image is too large", map[string]any{
			"image":     "image exceeds the size limit",
			"max_bytes": s.maxImageBytes,
		})
	}
	if mime, ok := storage.DetectImageType(input.Image); !ok {
		return apperrors.NewValidationError("image must be a picture", map[string]any{
			"image":     "unsupported content type",
			"mime_type": mime,
		})
	}
	return nil
}
