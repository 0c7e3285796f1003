package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/whybepb/campus-fixit/internal/api/dto"
	"github.com/whybepb/campus-fixit/internal/auth"
	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/service"
	"github.com/whybepb/campus-fixit/internal/upload"
	apperrors "github.com/whybepb/campus-fixit/pkg/util"
)

// IssuesHandler manages issue endpoints for both roles.
type IssuesHandler struct {
	service *service.IssueService
	uploads *upload.Storage
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService, uploads *upload.Storage) *IssuesHandler {
	return &IssuesHandler{service: issueService, uploads: uploads}
}

// List GET /api/issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := service.IssueListFilter{
		Status:   statusParam(c),
		Category: categoryParam(c),
		Priority: priorityParam(c),
		Search:   stringParam(c, "search"),
		Page:     intParam(c, "page", 1),
		Limit:    intParam(c, "limit", 20),
	}

	issues, pagination, err := h.service.List(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueListResponse{
		Issues:     dto.NewIssueResponses(issues),
		Pagination: pagination,
	})
}

// ListMine GET /api/issues/my.
func (h *IssuesHandler) ListMine(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := service.IssueListFilter{
		Status:   statusParam(c),
		Category: categoryParam(c),
		Page:     intParam(c, "page", 1),
		Limit:    intParam(c, "limit", 20),
	}

	issues, pagination, err := h.service.ListMine(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueListResponse{
		Issues:     dto.NewIssueResponses(issues),
		Pagination: pagination,
	})
}

// Stats GET /api/issues/stats (admin).
func (h *IssuesHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIssueStatsResponse(stats))
}

// Get GET /api/issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	issue, err := h.service.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"issue": dto.NewIssueResponse(issue)})
}

// Create POST /api/issues. Accepts a multipart form with text fields and
// up to five image files under "images".
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.IssueCreateInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    domain.IssueCategory(c.FormValue("category")),
		Location:    c.FormValue("location"),
		Priority:    domain.IssuePriority(c.FormValue("priority")),
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if files := form.File["images"]; len(files) > 0 {
			paths, err := h.uploads.SaveImages(files)
			if err != nil {
				return err
			}
			input.Images = paths
		}
	}

	issue, err := h.service.Create(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"issue": dto.NewIssueResponse(issue)})
}

// Update PUT /api/issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.IssueUpdateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Location:      req.Location,
		Priority:      req.Priority,
		Status:        req.Status,
		AdminRemarks:  req.AdminRemarks,
		AssignedTo:    req.AssignedTo.Value,
		AssignedToSet: req.AssignedTo.Set,
	}

	issue, err := h.service.Update(c.Context(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"issue": dto.NewIssueResponse(issue)})
}

// Delete DELETE /api/issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.service.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Issue deleted successfully"})
}

func stringParam(c *fiber.Ctx, name string) *string {
	if val := c.Query(name); val != "" {
		return &val
	}
	return nil
}

func statusParam(c *fiber.Ctx) *domain.IssueStatus {
	if val := c.Query("status"); val != "" {
		status := domain.IssueStatus(val)
		return &status
	}
	return nil
}

func categoryParam(c *fiber.Ctx) *domain.IssueCategory {
	if val := c.Query("category"); val != "" {
		category := domain.IssueCategory(val)
		return &category
	}
	return nil
}

func priorityParam(c *fiber.Ctx) *domain.IssuePriority {
	if val := c.Query("priority"); val != "" {
		priority := domain.IssuePriority(val)
		return &priority
	}
	return nil
}

func intParam(c *fiber.Ctx, name string, def int) int {
	val := c.Query(name)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
