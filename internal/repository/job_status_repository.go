package repository

import (
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
)

// GormJobStatusRepository is a GORM implementation of JobStatusRepository
type GormJobStatusRepository struct {
	db *gorm.DB
}

// NewJobStatusRepository creates a new JobStatusRepository
func NewJobStatusRepository(db *gorm.DB) JobStatusRepository {
	return &GormJobStatusRepository{db: db}
}

// List returns the statuses of a tenant ordered by order_index
func (r *GormJobStatusRepository) List(tenantID string) ([]models.JobStatus, error) {
	var statuses []models.JobStatus
	err := r.db.
		Scopes(database.InTenant("job_statuses", tenantID), database.Active("job_statuses")).
		Order("job_statuses.order_index ASC").
		Order("job_statuses.created_at ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// FindByID finds a status of a tenant
func (r *GormJobStatusRepository) FindByID(tenantID, id string) (*models.JobStatus, error) {
	var status models.JobStatus
	err := r.db.
		Scopes(database.InTenant("job_statuses", tenantID), database.Active("job_statuses")).
		Where("job_statuses.id = ?", id).
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Append creates the status at max(order_index)+1 of the live statuses
func (r *GormJobStatusRepository) Append(status *models.JobStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxIndex sql.NullInt64
		err := tx.Model(&models.JobStatus{}).
			Scopes(database.InTenant("job_statuses", status.TenantID), database.Active("job_statuses")).
			Select("MAX(job_statuses.order_index)").
			Row().
			Scan(&maxIndex)
		if err != nil {
			return err
		}

		status.OrderIndex = 0
		if maxIndex.Valid {
			status.OrderIndex = int(maxIndex.Int64) + 1
		}
		return tx.Create(status).Error
	})
}

// Update saves name and color
func (r *GormJobStatusRepository) Update(status *models.JobStatus) error {
	result := r.db.Model(&models.JobStatus{}).
		Scopes(database.InTenant("job_statuses", status.TenantID), database.Active("job_statuses")).
		Where("job_statuses.id = ?", status.ID).
		Updates(map[string]interface{}{
			"name":  status.Name,
			"color": status.Color,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft deletes the status. The in-use check and the delete share one
// transaction with the status row locked where the dialect supports it.
func (r *GormJobStatusRepository) Delete(tenantID, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var status models.JobStatus
		err := lockForUpdate(tx).
			Scopes(database.InTenant("job_statuses", tenantID), database.Active("job_statuses")).
			Where("job_statuses.id = ?", id).
			First(&status).Error
		if err != nil {
			return err
		}

		var inUse int64
		err = tx.Model(&models.Job{}).
			Scopes(database.InTenant("jobs", tenantID), database.Active("jobs")).
			Where("jobs.status_id = ?", id).
			Count(&inUse).Error
		if err != nil {
			return err
		}
		if inUse > 0 {
			return ErrStatusInUse
		}

		return tx.Model(&status).Update("is_deleted", true).Error
	})
}

// Reorder sets order_index = position for each id. Unknown ids and ids of
// other tenants are skipped.
func (r *GormJobStatusRepository) Reorder(tenantID string, ids []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for position, id := range ids {
			err := tx.Model(&models.JobStatus{}).
				Scopes(database.InTenant("job_statuses", tenantID), database.Active("job_statuses")).
				Where("job_statuses.id = ?", id).
				Update("order_index", position).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// lockForUpdate adds FOR UPDATE on dialects that support row locks.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}
