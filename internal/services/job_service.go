package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/policy"
	"github.com/yukikurage/field-service-api/internal/repository"
	"github.com/yukikurage/field-service-api/internal/utils"
)

// JobService handles the job lifecycle: create, update, archive and delete.
type JobService struct {
	jobRepo      repository.JobRepository
	taskRepo     repository.TaskRepository
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	statusRepo   repository.JobStatusRepository
}

// NewJobService creates a new JobService
func NewJobService(
	jobRepo repository.JobRepository,
	taskRepo repository.TaskRepository,
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	statusRepo repository.JobStatusRepository,
) *JobService {
	return &JobService{
		jobRepo:      jobRepo,
		taskRepo:     taskRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		statusRepo:   statusRepo,
	}
}

// ListJobsInput represents filters for listing jobs. PageSize 0 disables
// pagination.
type ListJobsInput struct {
	StatusID   string
	WorkerID   string
	CustomerID string
	Search     string
	Archived   bool
	Page       int
	PageSize   int
}

// CreateJobInput represents input for creating a job
type CreateJobInput struct {
	CustomerID       string
	StatusID         string
	Title            string
	AssignedWorkerID *string
	Description      *string
	ScheduledDate    *time.Time
}

// JobPatch is a partial job update. Keys lists every key present in the
// payload; a nil pointer means the field was absent and a Clear flag means
// it was sent as null. Invalid holds decoding problems, reported only once
// the caller is known to be allowed to send those keys.
type JobPatch struct {
	Keys []string

	CustomerID          *string
	StatusID            *string
	Title               *string
	Description         *string
	ClearDescription    bool
	AssignedWorkerID    *string
	ClearAssignedWorker bool
	ScheduledDate       *time.Time
	ClearScheduledDate  bool

	Invalid []FieldError
}

// JobWithTasks is a joined job and its live tasks
type JobWithTasks struct {
	Job   *models.JobDetails
	Tasks []models.Task
}

// List returns the tenant's jobs matching every given filter
func (s *JobService) List(actor policy.Actor, input ListJobsInput) ([]models.JobDetails, int64, error) {
	if err := policy.CanManageJobs(actor); err != nil {
		return nil, 0, err
	}

	jobs, total, err := s.jobRepo.List(repository.JobFilter{
		TenantID:   actor.TenantID,
		StatusID:   input.StatusID,
		WorkerID:   input.WorkerID,
		CustomerID: input.CustomerID,
		Search:     input.Search,
		Archived:   input.Archived,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}

// ListAssigned returns the caller's own active jobs
func (s *JobService) ListAssigned(actor policy.Actor) ([]models.JobDetails, error) {
	jobs, err := s.jobRepo.ListAssigned(actor.TenantID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned jobs: %w", err)
	}
	return jobs, nil
}

// Get returns a joined job with its tasks
func (s *JobService) Get(actor policy.Actor, id string) (*JobWithTasks, error) {
	job, err := loadJob(s.jobRepo, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewJob(actor, job); err != nil {
		return nil, policyError(err, ErrJobNotFound)
	}

	details, err := s.details(actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByJob(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return &JobWithTasks{Job: details, Tasks: tasks}, nil
}

// CanView reports whether the actor may read the job
func (s *JobService) CanView(actor policy.Actor, id string) error {
	job, err := loadJob(s.jobRepo, actor.TenantID, id)
	if err != nil {
		return err
	}
	return policyError(policy.CanViewJob(actor, job), ErrJobNotFound)
}

// Create validates the references inside the tenant and creates the job
// with a fresh customer access token
func (s *JobService) Create(actor policy.Actor, input CreateJobInput) (*models.JobDetails, error) {
	if err := policy.CanManageJobs(actor); err != nil {
		return nil, err
	}

	v := &validator{}
	v.required("customerId", input.CustomerID)
	v.required("statusId", input.StatusID)
	v.required("title", input.Title)
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.checkCustomer(v, actor.TenantID, input.CustomerID); err != nil {
		return nil, err
	}
	if err := s.checkStatus(v, actor.TenantID, input.StatusID); err != nil {
		return nil, err
	}
	workerID := optionalString(input.AssignedWorkerID)
	if workerID != nil {
		if err := s.checkWorker(v, actor.TenantID, *workerID); err != nil {
			return nil, err
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	job := &models.Job{
		TenantID:            actor.TenantID,
		CustomerID:          input.CustomerID,
		AssignedWorkerID:    workerID,
		StatusID:            input.StatusID,
		Title:               strings.TrimSpace(input.Title),
		Description:         optionalString(input.Description),
		ScheduledDate:       input.ScheduledDate,
		CustomerAccessToken: utils.NewCustomerAccessToken(),
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return s.details(actor.TenantID, job.ID)
}

// Update applies a partial update. Access is decided on the freshly loaded
// row before anything is written.
func (s *JobService) Update(actor policy.Actor, id string, patch JobPatch) (*models.JobDetails, error) {
	job, err := loadJob(s.jobRepo, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanUpdateJob(actor, job, patch.Keys); err != nil {
		if errors.Is(err, policy.ErrForbidden) && policy.CanViewJob(actor, job) == nil {
			return nil, ErrWorkerFieldRestricted
		}
		return nil, policyError(err, ErrJobNotFound)
	}

	v := &validator{fields: append([]FieldError(nil), patch.Invalid...)}
	fields := map[string]interface{}{}

	if patch.CustomerID != nil {
		if strings.TrimSpace(*patch.CustomerID) == "" {
			v.add("customerId", "customerId cannot be empty")
		} else if err := s.checkCustomer(v, actor.TenantID, *patch.CustomerID); err != nil {
			return nil, err
		}
		fields["customer_id"] = *patch.CustomerID
	}
	if patch.StatusID != nil {
		if strings.TrimSpace(*patch.StatusID) == "" {
			v.add("statusId", "statusId cannot be empty")
		} else if err := s.checkStatus(v, actor.TenantID, *patch.StatusID); err != nil {
			return nil, err
		}
		fields["status_id"] = *patch.StatusID
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			v.add("title", "title cannot be empty")
		}
		fields["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.ClearDescription {
		fields["description"] = nil
	} else if patch.Description != nil {
		fields["description"] = optionalString(patch.Description)
	}
	if patch.ClearAssignedWorker {
		fields["assigned_worker_id"] = nil
	} else if patch.AssignedWorkerID != nil {
		if strings.TrimSpace(*patch.AssignedWorkerID) == "" {
			fields["assigned_worker_id"] = nil
		} else {
			if err := s.checkWorker(v, actor.TenantID, *patch.AssignedWorkerID); err != nil {
				return nil, err
			}
			fields["assigned_worker_id"] = *patch.AssignedWorkerID
		}
	}
	if patch.ClearScheduledDate {
		fields["scheduled_date"] = nil
	} else if patch.ScheduledDate != nil {
		fields["scheduled_date"] = *patch.ScheduledDate
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		if err := s.jobRepo.UpdateFields(actor.TenantID, id, fields); err != nil {
			return nil, fmt.Errorf("failed to update job: %w", err)
		}
	}
	return s.details(actor.TenantID, id)
}

// SetArchived archives or unarchives a job
func (s *JobService) SetArchived(actor policy.Actor, id string, archived bool) (*models.JobDetails, error) {
	if err := policy.CanManageJobs(actor); err != nil {
		return nil, err
	}
	if _, err := loadJob(s.jobRepo, actor.TenantID, id); err != nil {
		return nil, err
	}

	if err := s.jobRepo.UpdateFields(actor.TenantID, id, map[string]interface{}{"is_archived": archived}); err != nil {
		return nil, fmt.Errorf("failed to archive job: %w", err)
	}
	return s.details(actor.TenantID, id)
}

// Delete soft deletes a job. Its children become unreachable through the
// job-scoped queries.
func (s *JobService) Delete(actor policy.Actor, id string) error {
	if err := policy.CanManageJobs(actor); err != nil {
		return err
	}
	if _, err := loadJob(s.jobRepo, actor.TenantID, id); err != nil {
		return err
	}

	if err := s.jobRepo.UpdateFields(actor.TenantID, id, map[string]interface{}{"is_deleted": true}); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (s *JobService) details(tenantID, id string) (*models.JobDetails, error) {
	details, err := s.jobRepo.FindDetails(tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return details, nil
}

// checkCustomer, checkStatus and checkWorker record a field error when the
// reference does not resolve inside the tenant. Only lookup failures are
// returned as errors.

func (s *JobService) checkCustomer(v *validator, tenantID, id string) error {
	_, err := s.customerRepo.FindByID(tenantID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		v.add("customerId", "customer not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find customer: %w", err)
	}
	return nil
}

func (s *JobService) checkStatus(v *validator, tenantID, id string) error {
	_, err := s.statusRepo.FindByID(tenantID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		v.add("statusId", "job status not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find job status: %w", err)
	}
	return nil
}

func (s *JobService) checkWorker(v *validator, tenantID, id string) error {
	user, err := s.userRepo.FindByID(tenantID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		v.add("assignedWorkerId", "worker not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find worker: %w", err)
	}
	if user.Role != models.RoleWorker {
		v.add("assignedWorkerId", "assigned user must have the worker role")
	}
	return nil
}

// loadJob reads the raw job row of the tenant for an access decision
func loadJob(repo repository.JobRepository, tenantID, id string) (*models.Job, error) {
	job, err := repo.FindByID(tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return job, nil
}
