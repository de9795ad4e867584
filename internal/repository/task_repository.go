package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a live task whose job is live and belongs to the tenant
func (r *GormTaskRepository) FindByID(tenantID, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.
		Select("tasks.*").
		Joins("JOIN jobs ON jobs.id = tasks.job_id AND jobs.tenant_id = ? AND jobs.is_deleted = ?", tenantID, false).
		Scopes(database.Active("tasks")).
		Where("tasks.id = ?", id).
		Take(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByJob lists the live tasks of a live job, oldest first
func (r *GormTaskRepository) ListByJob(jobID string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.
		Select("tasks.*").
		Joins("JOIN jobs ON jobs.id = tasks.job_id AND jobs.is_deleted = ?", false).
		Scopes(database.Active("tasks")).
		Where("tasks.job_id = ?", jobID).
		Order("tasks.created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateFields writes only the given columns
func (r *GormTaskRepository) UpdateFields(id string, fields map[string]interface{}) error {
	return r.db.Model(&models.Task{}).
		Scopes(database.Active("tasks")).
		Where("tasks.id = ?", id).
		Updates(fields).Error
}

// SetCompletion writes is_completed, completed_at and completed_by in one statement
func (r *GormTaskRepository) SetCompletion(id string, completed bool, at *time.Time, by *string) error {
	return r.db.Model(&models.Task{}).
		Scopes(database.Active("tasks")).
		Where("tasks.id = ?", id).
		Updates(map[string]interface{}{
			"is_completed": completed,
			"completed_at": at,
			"completed_by": by,
		}).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id string) error {
	result := r.db.Model(&models.Task{}).
		Scopes(database.Active("tasks")).
		Where("tasks.id = ?", id).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
