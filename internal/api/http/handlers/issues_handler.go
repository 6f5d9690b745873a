package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-triage/internal/auth"
	"github.com/spec-kit/civic-triage/internal/service"
	apperrors "github.com/spec-kit/civic-triage/pkg/util/errorutil"
)

// IssuesHandler serves the reporter endpoints.
type IssuesHandler struct {
	intake        *service.IntakeService
	query         *service.QueryService
	imageBaseURL  string
	maxImageBytes int64
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(intake *service.IntakeService, query *service.QueryService, imageBaseURL string, maxImageBytes int) *IssuesHandler {
	return &IssuesHandler{
		intake:        intake,
		query:         query,
		imageBaseURL:  imageBaseURL,
		maxImageBytes: int64(maxImageBytes),
	}
}

// Submit POST /api/issues (multipart form).
func (h *IssuesHandler) Submit(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	details := map[string]any{}
	lat := parseCoordinate(c.FormValue("latitude"), "latitude", details)
	lng := parseCoordinate(c.FormValue("longitude"), "longitude", details)
	image, err := h.readImage(c)
	if err != nil {
		details["image"] = err.Error()
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid submission", details)
	}

	issue, err := h.intake.Submit(c.UserContext(), actor, service.SubmitInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Image:       image,
		Latitude:    lat,
		Longitude:   lng,
		Address:     c.FormValue("address"),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueResponse(issue, h.imageBaseURL)})
}

// ListMine GET /api/issues.
func (h *IssuesHandler) ListMine(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issues, err := h.query.ListMine(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueList(issues, h.imageBaseURL)})
}

// readImage returns the uploaded image bytes. A missing file yields nil so
// the service reports it alongside the other field errors.
func (h *IssuesHandler) readImage(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}
	if h.maxImageBytes > 0 && fh.Size > h.maxImageBytes {
		return nil, errImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errImageUnreadable
	}
	defer f.Close()

	r := io.Reader(f)
	if h.maxImageBytes > 0 {
		r = io.LimitReader(f, h.maxImageBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errImageUnreadable
	}
	if h.maxImageBytes > 0 && int64(len(data)) > h.maxImageBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}

var (
	errImageTooLarge   = errors.New("image exceeds the size limit")
	errImageUnreadable = errors.New("image could not be read")
)

func parseCoordinate(raw, field string, details map[string]any) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		details[field] = field + " is required"
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		details[field] = field + " must be a number"
		return 0
	}
	return v
}
