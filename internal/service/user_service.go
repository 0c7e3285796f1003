package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/repository"
	apperrors "github.com/whybepb/campus-fixit/pkg/util"
)

// UserService covers profile updates and the admin-gated user directory.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// UserListFilter describes admin listing parameters.
type UserListFilter struct {
	Role   *domain.Role
	Search *string
	Page   int
	Limit  int
}

// ProfileUpdateInput carries profile fields a user may change. Role is
// deliberately absent; it has its own admin-only operation.
type ProfileUpdateInput struct {
	Name       *string
	StudentID  *string
	Department *string
	Phone      *string
	Avatar     *string
	PushToken  *string
}

// List returns a page of users for the admin directory.
func (s *UserService) List(ctx context.Context, filter UserListFilter) ([]domain.User, Pagination, error) {
	if filter.Role != nil && !domain.ValidRole(*filter.Role) {
		return nil, Pagination{}, apperrors.NewValidationError("Invalid role", nil)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	repoFilter := repository.UserFilter{
		Role:   filter.Role,
		Search: filter.Search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	users, err := s.users.List(ctx, repoFilter)
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.users.Count(ctx, repoFilter)
	if err != nil {
		return nil, Pagination{}, err
	}
	if users == nil {
		users = []domain.User{}
	}

	return users, Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Get fetches a user record: self, or anyone for admins.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, apperrors.NewForbidden("Access denied")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User")
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies profile changes: self, or anyone for admins.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, id string, input ProfileUpdateInput) (*domain.User, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, apperrors.NewForbidden("Access denied")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User")
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("Name cannot be empty", nil)
		}
		user.Name = name
	}
	if input.StudentID != nil {
		user.StudentID = input.StudentID
	}
	if input.Department != nil {
		user.Department = input.Department
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.Avatar != nil {
		user.Avatar = input.Avatar
	}
	if input.PushToken != nil {
		user.PushToken = input.PushToken
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeRole sets a user's role. The handler gates this behind admin.
func (s *UserService) ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("Invalid role", nil)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User")
		}
		return nil, err
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user account (admin only at the route level).
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("User")
		}
		return err
	}
	return nil
}

// Stats returns the user-count overview.
func (s *UserService) Stats(ctx context.Context) (*repository.UserStats, error) {
	return s.users.Stats(ctx)
}
