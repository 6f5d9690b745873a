// Package classifier places a submitted issue into the fixed category
// taxonomy by asking an external multimodal model. Classification never
// fails its caller: every call error degrades to Other with confidence 0.
package classifier

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-triage/internal/domain"
	"github.com/spec-kit/civic-triage/internal/observability"
	"github.com/spec-kit/civic-triage/internal/storage"
)

// Outcome labels recorded for every classification.
const (
	ResultOK               = "ok"
	ResultImageUnavailable = "image_unavailable"
	ResultModelError       = "model_error"
	ResultTimeout          = "timeout"
	ResultUnparseable      = "unparseable"
)

// maxRetries bounds extra attempts after a transient failure.
const maxRetries = 1

// Request is one prompt plus the image it refers to.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// Model is any multimodal text generator.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ImageReader resolves an image reference to bytes.
type ImageReader interface {
	Get(ctx context.Context, ref string) (*storage.Image, error)
}

// Options tune the call budget.
type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Classifier turns an image reference and a description into a classification.
type Classifier struct {
	model   Model
	images  ImageReader
	logger  *zap.Logger
	metrics *observability.Metrics
	opts    Options
}

// New builds a Classifier. A zero Timeout means ten seconds and MaxRetries is
// clamped to [0,1].
func New(model Model, images ImageReader, logger *zap.Logger, metrics *observability.Metrics, opts Options) *Classifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetries > maxRetries {
		opts.MaxRetries = maxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 250 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{model: model, images: images, logger: logger, metrics: metrics, opts: opts}
}

// Classify never returns an error; failures are logged and yield the fallback.
func (c *Classifier) Classify(ctx context.Context, imageRef, description string) domain.Classification {
	start := time.Now()

	img, err := c.images.Get(ctx, imageRef)
	if err != nil {
		return c.fallback(ResultImageUnavailable, imageRef, start, err)
	}

	text, err := renderPrompt(description)
	if err != nil {
		return c.fallback(ResultModelError, imageRef, start, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	reply, err := c.generate(callCtx, Request{Prompt: text, Image: img.Data, MIMEType: img.MIMEType})
	if err != nil {
		result := ResultModelError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			result = ResultTimeout
		}
		return c.fallback(result, imageRef, start, err)
	}

	result := ResultOK
	classification, err := Parse(reply)
	if err != nil {
		result = ResultUnparseable
		c.logger.Warn("classifier reply carried no markers",
			zap.String("image_ref", imageRef),
			zap.String("reply", reply),
		)
	}

	c.metrics.RecordClassification(result, time.Since(start))
	c.logger.Info("issue classified",
		zap.String("image_ref", imageRef),
		zap.String("category", string(classification.Category)),
		zap.Int("confidence", classification.Confidence),
	)
	return classification
}

func (c *Classifier) generate(ctx context.Context, req Request) (string, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.opts.RetryBackoff), uint64(c.opts.MaxRetries)),
		ctx,
	)
	attempt := 0
	return backoff.RetryWithData(func() (string, error) {
		attempt++
		reply, err := c.model.Generate(ctx, req)
		if err == nil {
			return reply, nil
		}
		if !isTransient(err) {
			return "", backoff.Permanent(err)
		}
		c.logger.Debug("transient classifier failure", zap.Int("attempt", attempt), zap.Error(err))
		return "", err
	}, policy)
}

func (c *Classifier) fallback(result, imageRef string, start time.Time, cause error) domain.Classification {
	c.metrics.RecordClassification(result, time.Since(start))
	c.logger.Warn("classification fell back to Other",
		zap.String("image_ref", imageRef),
		zap.String("reason", result),
		zap.Error(cause),
	)
	return domain.FallbackClassification
}

// isTransient reports failures worth one more attempt: network errors,
// truncated bodies, rate limiting and server-side errors.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
