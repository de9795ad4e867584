package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
)

// GormCustomerRepository is a GORM implementation of CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

func (r *GormCustomerRepository) FindByID(tenantID, id string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.
		Scopes(database.InTenant("customers", tenantID), database.Active("customers")).
		Where("customers.id = ?", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns customers ordered by name; search matches name or email
func (r *GormCustomerRepository) List(tenantID, search string) ([]models.Customer, error) {
	query := r.db.Scopes(database.InTenant("customers", tenantID), database.Active("customers"))
	if search = strings.TrimSpace(search); search != "" {
		pattern := likePattern(search)
		query = query.Where("(LOWER(customers.name) LIKE ? OR LOWER(customers.email) LIKE ?)", pattern, pattern)
	}

	var customers []models.Customer
	if err := query.Order("customers.name ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *GormCustomerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

func (r *GormCustomerRepository) Delete(tenantID, id string) error {
	result := r.db.Model(&models.Customer{}).
		Scopes(database.InTenant("customers", tenantID), database.Active("customers")).
		Where("customers.id = ?", id).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// likePattern builds a case-insensitive substring pattern for LIKE.
func likePattern(search string) string {
	return "%" + strings.ToLower(search) + "%"
}
