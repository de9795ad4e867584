package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/repository"
)

// CustomerService manages the business contacts of a tenant
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CustomerInput holds customer fields. On update a nil field is left
// untouched and a Clear flag sets the column to NULL.
type CustomerInput struct {
	Name         *string
	Email        *string
	Phone        *string
	Address      *string
	ClearEmail   bool
	ClearPhone   bool
	ClearAddress bool
}

func (s *CustomerService) List(tenantID, search string) ([]models.Customer, error) {
	customers, err := s.customerRepo.List(tenantID, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *CustomerService) Get(tenantID, id string) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByID(tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) Create(tenantID string, input CustomerInput) (*models.Customer, error) {
	v := &validator{}
	if input.Name == nil {
		v.add("name", "name is required")
	} else {
		v.required("name", *input.Name)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		TenantID: tenantID,
		Name:     strings.TrimSpace(*input.Name),
		Email:    optionalString(input.Email),
		Phone:    optionalString(input.Phone),
		Address:  optionalString(input.Address),
	}
	if err := s.customerRepo.Create(customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) Update(tenantID, id string, input CustomerInput) (*models.Customer, error) {
	customer, err := s.Get(tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, &ValidationError{Fields: []FieldError{{Field: "name", Message: "name cannot be empty"}}}
		}
		customer.Name = strings.TrimSpace(*input.Name)
	}
	customer.Email = applyOptional(customer.Email, input.Email, input.ClearEmail)
	customer.Phone = applyOptional(customer.Phone, input.Phone, input.ClearPhone)
	customer.Address = applyOptional(customer.Address, input.Address, input.ClearAddress)

	if err := s.customerRepo.Update(customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) Delete(tenantID, id string) error {
	if err := s.customerRepo.Delete(tenantID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

// optionalString treats blank strings as absent
func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func applyOptional(current, value *string, clear bool) *string {
	if clear {
		return nil
	}
	if value != nil {
		return optionalString(value)
	}
	return current
}
