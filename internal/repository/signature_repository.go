package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
)

// GormSignatureRepository is a GORM implementation of SignatureRepository
type GormSignatureRepository struct {
	db *gorm.DB
}

// NewSignatureRepository creates a new SignatureRepository
func NewSignatureRepository(db *gorm.DB) SignatureRepository {
	return &GormSignatureRepository{db: db}
}

func (r *GormSignatureRepository) Create(signature *models.Signature) error {
	return r.db.Create(signature).Error
}

func (r *GormSignatureRepository) FindByID(tenantID, id string) (*models.Signature, error) {
	var signature models.Signature
	err := r.db.
		Select("job_signatures.*").
		Joins("JOIN jobs ON jobs.id = job_signatures.job_id AND jobs.tenant_id = ? AND jobs.is_deleted = ?", tenantID, false).
		Scopes(database.Active("job_signatures")).
		Where("job_signatures.id = ?", id).
		Take(&signature).Error
	if err != nil {
		return nil, err
	}
	return &signature, nil
}

func (r *GormSignatureRepository) ListByJob(jobID string) ([]models.Signature, error) {
	signatures := []models.Signature{}
	err := r.db.
		Select("job_signatures.*").
		Joins("JOIN jobs ON jobs.id = job_signatures.job_id AND jobs.is_deleted = ?", false).
		Scopes(database.Active("job_signatures")).
		Where("job_signatures.job_id = ?", jobID).
		Order("job_signatures.signed_at DESC").
		Find(&signatures).Error
	if err != nil {
		return nil, err
	}
	return signatures, nil
}

func (r *GormSignatureRepository) Delete(id string) error {
	result := r.db.Model(&models.Signature{}).
		Scopes(database.Active("job_signatures")).
		Where("job_signatures.id = ?", id).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
