package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user of a tenant
func (r *GormUserRepository) FindByID(tenantID, id string) (*models.User, error) {
	var user models.User
	err := r.db.
		Scopes(database.InTenant("users", tenantID), database.Active("users")).
		Where("users.id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email across all tenants
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.
		Scopes(database.Active("users")).
		Where("users.email = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List lists the users of a tenant
func (r *GormUserRepository) List(tenantID string, role *models.Role) ([]models.User, error) {
	query := r.db.Scopes(database.InTenant("users", tenantID), database.Active("users"))
	if role != nil {
		query = query.Where("users.role = ?", *role).Order("users.name ASC")
	} else {
		query = query.Order("users.created_at DESC")
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update saves every column of the user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Omit("Tenant").Save(user).Error
}

// Delete soft deletes a user
func (r *GormUserRepository) Delete(tenantID, id string) error {
	result := r.db.Model(&models.User{}).
		Scopes(database.InTenant("users", tenantID), database.Active("users")).
		Where("users.id = ?", id).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
