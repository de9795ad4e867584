package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/repository"
)

// CustomerAccessService resolves the shareable read-only job link. The
// token is the only credential; no tenant or role applies.
type CustomerAccessService struct {
	jobRepo  repository.JobRepository
	taskRepo repository.TaskRepository
}

// NewCustomerAccessService creates a new CustomerAccessService
func NewCustomerAccessService(jobRepo repository.JobRepository, taskRepo repository.TaskRepository) *CustomerAccessService {
	return &CustomerAccessService{
		jobRepo:  jobRepo,
		taskRepo: taskRepo,
	}
}

// Resolve returns the job behind a customer access token with its tasks.
// Archived jobs resolve; deleted ones do not.
func (s *CustomerAccessService) Resolve(token string) (*JobWithTasks, error) {
	if token == "" {
		return nil, ErrJobNotFound
	}

	job, err := s.jobRepo.FindDetailsByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to resolve customer link: %w", err)
	}
	tasks, err := s.taskRepo.ListByJob(job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return &JobWithTasks{Job: job, Tasks: tasks}, nil
}
