package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/constants"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/repository"
)

const maxColorLength = 20

// StatusService maintains the ordered workflow labels of a tenant
type StatusService struct {
	statusRepo repository.JobStatusRepository
}

// NewStatusService creates a new StatusService
func NewStatusService(statusRepo repository.JobStatusRepository) *StatusService {
	return &StatusService{statusRepo: statusRepo}
}

// StatusInput holds the editable status fields. Nil means not provided.
type StatusInput struct {
	Name  *string
	Color *string
}

func (s *StatusService) List(tenantID string) ([]models.JobStatus, error) {
	statuses, err := s.statusRepo.List(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job statuses: %w", err)
	}
	return statuses, nil
}

func (s *StatusService) Get(tenantID, id string) (*models.JobStatus, error) {
	status, err := s.statusRepo.FindByID(tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to find job status: %w", err)
	}
	return status, nil
}

// Create appends a status after the last one
func (s *StatusService) Create(tenantID string, input StatusInput) (*models.JobStatus, error) {
	v := &validator{}
	if input.Name == nil {
		v.add("name", "name is required")
	} else {
		v.required("name", *input.Name)
	}
	checkColor(v, input.Color)
	if err := v.err(); err != nil {
		return nil, err
	}

	color := constants.DefaultStatusColor
	if input.Color != nil {
		color = strings.TrimSpace(*input.Color)
	}

	status := &models.JobStatus{
		TenantID: tenantID,
		Name:     strings.TrimSpace(*input.Name),
		Color:    color,
	}
	if err := s.statusRepo.Append(status); err != nil {
		return nil, fmt.Errorf("failed to create job status: %w", err)
	}
	return status, nil
}

// Update changes name and color; order_index is never touched here
func (s *StatusService) Update(tenantID, id string, input StatusInput) (*models.JobStatus, error) {
	status, err := s.Get(tenantID, id)
	if err != nil {
		return nil, err
	}

	v := &validator{}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		v.add("name", "name cannot be empty")
	}
	checkColor(v, input.Color)
	if err := v.err(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		status.Name = strings.TrimSpace(*input.Name)
	}
	if input.Color != nil {
		status.Color = strings.TrimSpace(*input.Color)
	}

	if err := s.statusRepo.Update(status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}
	return s.Get(tenantID, id)
}

// Delete fails with ErrStatusInUse while a live job references the status
func (s *StatusService) Delete(tenantID, id string) error {
	err := s.statusRepo.Delete(tenantID, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrStatusNotFound
	case errors.Is(err, repository.ErrStatusInUse):
		return ErrStatusInUse
	default:
		return fmt.Errorf("failed to delete job status: %w", err)
	}
}

// Reorder assigns order_index by position and returns the new list
func (s *StatusService) Reorder(tenantID string, ids []string) ([]models.JobStatus, error) {
	v := &validator{}
	if len(ids) == 0 {
		v.add("statusIds", "statusIds must be a non-empty array")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			v.add("statusIds", "statusIds cannot contain empty ids")
			break
		}
		if _, dup := seen[id]; dup {
			v.add("statusIds", "statusIds cannot contain duplicates")
			break
		}
		seen[id] = struct{}{}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.statusRepo.Reorder(tenantID, ids); err != nil {
		return nil, fmt.Errorf("failed to reorder job statuses: %w", err)
	}
	return s.List(tenantID)
}

func checkColor(v *validator, color *string) {
	if color == nil {
		return
	}
	if c := strings.TrimSpace(*color); c == "" || len(c) > maxColorLength {
		v.add("color", fmt.Sprintf("color must be between 1 and %d characters", maxColorLength))
	}
}
