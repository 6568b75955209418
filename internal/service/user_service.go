package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/repository"
	"github.com/Tatiana-20/tati-blog/internal/validation"
)

// UserService implements profile management.
type UserService struct {
	users repository.UserRepository
}

// NewUserService returns a new UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// UpdateUserInput carries a partial profile update. Nil fields are left
// untouched.
type UpdateUserInput struct {
	CallerID   uint
	CallerRole models.Role
	UserID     uint
	Name       *string
	Lastname   *string
	Email      *string
	Password   *string
	Role       *models.Role
}

// ListUsers returns a page of registered users.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// GetUser returns a single user by id.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// IsAdmin reports whether the user holds the admin role.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Role == models.RoleAdmin, nil
}

// UpdateUser applies a partial profile update. Callers may only edit their
// own profile unless they are admins, and only admins may change roles.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	if in.CallerID != in.UserID && in.CallerRole != models.RoleAdmin {
		return nil, models.NewForbiddenError("You can only update your own profile")
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := validation.ValidateName("name", *in.Name); err != nil {
			return nil, err
		}
		user.Name = *in.Name
	}
	if in.Lastname != nil {
		if err := validation.ValidateName("lastname", *in.Lastname); err != nil {
			return nil, err
		}
		user.Lastname = *in.Lastname
	}
	if in.Email != nil && *in.Email != user.Email {
		if err := validation.ValidateEmail(*in.Email); err != nil {
			return nil, err
		}
		existing, err := s.users.GetByEmail(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != user.ID {
			return nil, models.NewConflictError("Email already registered")
		}
		user.Email = *in.Email
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcryptCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hash)
	}
	if in.Role != nil && *in.Role != user.Role {
		if in.CallerRole != models.RoleAdmin {
			return nil, models.NewForbiddenError("Only admins can change roles")
		}
		if *in.Role != models.RoleUser && *in.Role != models.RoleAdmin {
			return nil, models.NewValidationError("Invalid role")
		}
		user.Role = *in.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, user.ID)
}

// DeleteUser soft deletes a user. Callers may only delete themselves unless
// they are admins.
func (s *UserService) DeleteUser(ctx context.Context, callerID uint, callerRole models.Role, userID uint) error {
	if callerID != userID && callerRole != models.RoleAdmin {
		return models.NewForbiddenError("You can only delete your own account")
	}
	return s.users.Delete(ctx, userID)
}
