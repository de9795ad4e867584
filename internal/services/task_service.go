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
)

// TaskService handles the checklist of a job
type TaskService struct {
	taskRepo repository.TaskRepository
	jobRepo  repository.JobRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, jobRepo repository.JobRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		jobRepo:  jobRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	JobID       string
	Title       string
	Description *string
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title            *string
	Description      *string
	ClearDescription bool
}

// List returns the tasks of a job the actor may read
func (s *TaskService) List(actor policy.Actor, jobID string) ([]models.Task, error) {
	job, err := loadJob(s.jobRepo, actor.TenantID, jobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewJob(actor, job); err != nil {
		return nil, policyError(err, ErrJobNotFound)
	}

	tasks, err := s.taskRepo.ListByJob(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create adds a task to a job
func (s *TaskService) Create(actor policy.Actor, input CreateTaskInput) (*models.Task, error) {
	v := &validator{}
	v.required("jobId", input.JobID)
	v.required("title", input.Title)
	if err := v.err(); err != nil {
		return nil, err
	}

	job, err := loadJob(s.jobRepo, actor.TenantID, input.JobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanEditTasks(actor, job); err != nil {
		return nil, policyError(err, ErrJobNotFound)
	}

	task := &models.Task{
		JobID:       job.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: optionalString(input.Description),
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return s.get(actor.TenantID, task.ID)
}

// Update edits the title or description of a task
func (s *TaskService) Update(actor policy.Actor, id string, input UpdateTaskInput) (*models.Task, error) {
	task, job, err := s.load(actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanEditTasks(actor, job); err != nil {
		return nil, policyError(err, ErrTaskNotFound)
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, &ValidationError{Fields: []FieldError{{Field: "title", Message: "title cannot be empty"}}}
		}
		fields["title"] = title
	}
	if input.ClearDescription {
		fields["description"] = nil
	} else if input.Description != nil {
		fields["description"] = optionalString(input.Description)
	}

	if len(fields) > 0 {
		if err := s.taskRepo.UpdateFields(task.ID, fields); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}
	return s.get(actor.TenantID, task.ID)
}

// Complete marks a task completed by the actor, or reopens it. The
// completion time and author are always written together with the flag.
func (s *TaskService) Complete(actor policy.Actor, id string, complete bool) (*models.Task, error) {
	task, job, err := s.load(actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanCompleteTask(actor, job); err != nil {
		return nil, policyError(err, ErrTaskNotFound)
	}

	var (
		at *time.Time
		by *string
	)
	if complete {
		now := time.Now()
		userID := actor.UserID
		at, by = &now, &userID
	}
	if err := s.taskRepo.SetCompletion(task.ID, complete, at, by); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	return s.get(actor.TenantID, task.ID)
}

// Delete soft deletes a task and returns it as it was before deletion
func (s *TaskService) Delete(actor policy.Actor, id string) (*models.Task, error) {
	task, job, err := s.load(actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanEditTasks(actor, job); err != nil {
		return nil, policyError(err, ErrTaskNotFound)
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	return task, nil
}

// load finds the task and its job inside the tenant
func (s *TaskService) load(tenantID, id string) (*models.Task, *models.Job, error) {
	task, err := s.get(tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	job, err := loadJob(s.jobRepo, tenantID, task.JobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, err
	}
	return task, job, nil
}

func (s *TaskService) get(tenantID, id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
