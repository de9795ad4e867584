package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
)

// GormTenantRepository is a GORM implementation of TenantRepository
type GormTenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &GormTenantRepository{db: db}
}

// Create creates a new tenant
func (r *GormTenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

// FindByID finds a non-deleted tenant by ID
func (r *GormTenantRepository) FindByID(id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.Scopes(database.Active("tenants")).Where("tenants.id = ?", id).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}
