package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/repository"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo   repository.UserRepository
	tenantRepo repository.TenantRepository
	tokens     *auth.TokenManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tenantRepo repository.TenantRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		tokens:     tokens,
	}
}

// LoginInput represents the credentials submitted on login.
type LoginInput struct {
	Email    string
	Password string
}

// Session is the result of a successful login or refresh.
type Session struct {
	User   *models.User
	Tokens auth.TokenPair
}

// Login checks the credentials and issues a token pair.
func (s *AuthService) Login(input LoginInput) (*Session, error) {
	v := &validator{}
	v.required("email", input.Email)
	v.required("password", input.Password)
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.ensureTenantActive(user.TenantID); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Refresh exchanges a refresh token for a new pair. The user is reloaded so
// role changes and deletions take effect.
func (s *AuthService) Refresh(refreshToken string) (*Session, error) {
	identity, err := s.tokens.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByID(identity.TenantID, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.ensureTenantActive(user.TenantID); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// GetUser returns the authenticated user.
func (s *AuthService) GetUser(identity auth.Identity) (*models.User, error) {
	user, err := s.userRepo.FindByID(identity.TenantID, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) ensureTenantActive(tenantID string) error {
	tenant, err := s.tenantRepo.FindByID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTenantInactive
		}
		return fmt.Errorf("failed to find tenant: %w", err)
	}
	if !tenant.IsActive {
		return ErrTenantInactive
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	pair, err := s.tokens.SignPair(auth.Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
		Email:    user.Email,
	})
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: pair}, nil
}
