package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/whybepb/campus-fixit/internal/api/dto"
	"github.com/whybepb/campus-fixit/internal/auth"
	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/service"
	apperrors "github.com/whybepb/campus-fixit/pkg/util"
)

// UsersHandler exposes the user directory and profile endpoints.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// List GET /api/users (admin).
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := service.UserListFilter{
		Search: stringParam(c, "search"),
		Page:   intParam(c, "page", 1),
		Limit:  intParam(c, "limit", 20),
	}
	if val := c.Query("role"); val != "" {
		role := domain.Role(val)
		filter.Role = &role
	}

	users, pagination, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{
		"users":      items,
		"pagination": pagination,
	})
}

// Get GET /api/users/:id (self or admin).
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.service.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Update PUT /api/users/:id (self or admin).
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.service.UpdateProfile(c.Context(), actor, c.Params("id"), service.ProfileUpdateInput{
		Name:       req.Name,
		StudentID:  req.StudentID,
		Department: req.Department,
		Phone:      req.Phone,
		Avatar:     req.Avatar,
		PushToken:  req.PushToken,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// ChangeRole PUT /api/users/:id/role (admin).
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.service.ChangeRole(c.Context(), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Delete DELETE /api/users/:id (admin).
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// Stats GET /api/users/stats/overview (admin).
func (h *UsersHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(dto.UserStatsResponse{
		Total:    stats.Total,
		Students: stats.Students,
		Admins:   stats.Admins,
	})
}
