package dto

import (
	"time"

	"github.com/whybepb/campus-fixit/internal/domain"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Name       string  `json:"name"`
	StudentID  *string `json:"studentId,omitempty"`
	Department *string `json:"department,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateProfileRequest carries optional profile fields.
type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	StudentID  *string `json:"studentId"`
	Department *string `json:"department"`
	Phone      *string `json:"phone"`
	Avatar     *string `json:"avatar"`
	PushToken  *string `json:"pushToken"`
}

// ChangeRoleRequest payload for the admin role toggle.
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}

// UserResponse is the JSON-safe user shape; the password hash never
// leaves the server.
type UserResponse struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	StudentID  *string     `json:"studentId,omitempty"`
	Department *string     `json:"department,omitempty"`
	Phone      *string     `json:"phone,omitempty"`
	Avatar     *string     `json:"avatar,omitempty"`
	PushToken  *string     `json:"pushToken,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// NewUserResponse maps a domain user to its response shape.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		StudentID:  user.StudentID,
		Department: user.Department,
		Phone:      user.Phone,
		Avatar:     user.Avatar,
		PushToken:  user.PushToken,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// UserStatsResponse is the admin user overview.
type UserStatsResponse struct {
	Total    int64 `json:"total"`
	Students int64 `json:"students"`
	Admins   int64 `json:"admins"`
}
