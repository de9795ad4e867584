package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
)

// GormAttachmentRepository is a GORM implementation of AttachmentRepository
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

func (r *GormAttachmentRepository) Create(attachment *models.Attachment) error {
	return r.db.Create(attachment).Error
}

// FindByID finds a live attachment whose job is live and belongs to the tenant
func (r *GormAttachmentRepository) FindByID(tenantID, id string) (*models.Attachment, error) {
	var attachment models.Attachment
	err := r.db.
		Select("job_attachments.*").
		Joins("JOIN jobs ON jobs.id = job_attachments.job_id AND jobs.tenant_id = ? AND jobs.is_deleted = ?", tenantID, false).
		Scopes(database.Active("job_attachments")).
		Where("job_attachments.id = ?", id).
		Take(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListByJob lists the live attachments of a live job, newest first
func (r *GormAttachmentRepository) ListByJob(jobID string) ([]models.Attachment, error) {
	attachments := []models.Attachment{}
	err := r.db.
		Select("job_attachments.*").
		Joins("JOIN jobs ON jobs.id = job_attachments.job_id AND jobs.is_deleted = ?", false).
		Scopes(database.Active("job_attachments")).
		Where("job_attachments.job_id = ?", jobID).
		Order("job_attachments.created_at DESC").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *GormAttachmentRepository) Delete(id string) error {
	result := r.db.Model(&models.Attachment{}).
		Scopes(database.Active("job_attachments")).
		Where("job_attachments.id = ?", id).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
