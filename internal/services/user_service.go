package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/constants"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/repository"
)

// UserService manages the staff accounts of a tenant.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserInput represents input for creating a user
type CreateUserInput struct {
	TenantID string
	Email    string
	Password string
	Name     string
	Role     models.Role
}

// UpdateUserInput represents input for updating a user. Empty values are
// left untouched.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *models.Role
	Password *string
}

func (s *UserService) List(tenantID string) ([]models.User, error) {
	users, err := s.userRepo.List(tenantID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListWorkers returns the tenant's workers ordered by name
func (s *UserService) ListWorkers(tenantID string) ([]models.User, error) {
	role := models.RoleWorker
	users, err := s.userRepo.List(tenantID, &role)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(tenantID, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Create creates a user; the email is stored lower-cased and must be unique
// across all tenants
func (s *UserService) Create(input CreateUserInput) (*models.User, error) {
	email := normalizeEmail(input.Email)

	v := &validator{}
	v.required("email", email)
	v.required("password", input.Password)
	v.required("name", input.Name)
	v.required("role", string(input.Role))
	if email != "" && !validEmail(email) {
		v.add("email", "email is invalid")
	}
	if input.Password != "" && len(input.Password) < constants.MinPasswordLength {
		v.add("password", fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength))
	}
	if input.Role != "" && !input.Role.Valid() {
		v.add("role", "role must be one of admin, worker, customer")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(email, ""); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		TenantID:     input.TenantID,
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Update changes the given fields of a user
func (s *UserService) Update(tenantID, id string, input UpdateUserInput) (*models.User, error) {
	user, err := s.Get(tenantID, id)
	if err != nil {
		return nil, err
	}

	v := &validator{}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		v.add("name", "name cannot be empty")
	}
	var email string
	if input.Email != nil {
		email = normalizeEmail(*input.Email)
		if !validEmail(email) {
			v.add("email", "email is invalid")
		}
	}
	if input.Role != nil && !input.Role.Valid() {
		v.add("role", "role must be one of admin, worker, customer")
	}
	if input.Password != nil && len(*input.Password) < constants.MinPasswordLength {
		v.add("password", fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength))
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil && email != user.Email {
		if err := s.ensureEmailFree(email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete soft deletes a user. Users cannot delete themselves.
func (s *UserService) Delete(tenantID, actorID, id string) error {
	if actorID == id {
		return &ValidationError{Fields: []FieldError{{Field: "id", Message: "cannot delete your own account"}}}
	}
	if err := s.userRepo.Delete(tenantID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserService) ensureEmailFree(email, exceptID string) error {
	existing, err := s.userRepo.FindByEmail(email)
	if err == nil && existing.ID != exceptID {
		return ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
