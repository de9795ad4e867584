package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/utils"
)

const jobDetailsColumns = "jobs.*, " +
	"customers.name AS customer_name, " +
	"users.name AS worker_name, " +
	"job_statuses.name AS status_name, " +
	"job_statuses.color AS status_color"

// GormJobRepository is a GORM implementation of JobRepository
type GormJobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *gorm.DB) JobRepository {
	return &GormJobRepository{db: db}
}

// joined returns live jobs joined with customer, worker and status names
func (r *GormJobRepository) joined() *gorm.DB {
	return r.db.Table("jobs").
		Joins("LEFT JOIN customers ON customers.id = jobs.customer_id").
		Joins("LEFT JOIN users ON users.id = jobs.assigned_worker_id").
		Joins("LEFT JOIN job_statuses ON job_statuses.id = jobs.status_id").
		Scopes(database.Active("jobs"))
}

// Create creates a new job
func (r *GormJobRepository) Create(job *models.Job) error {
	return r.db.Create(job).Error
}

// FindByID loads the raw job row of a tenant
func (r *GormJobRepository) FindByID(tenantID, id string) (*models.Job, error) {
	var job models.Job
	err := r.db.
		Scopes(database.InTenant("jobs", tenantID), database.Active("jobs")).
		Where("jobs.id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindDetails loads the joined view of a job of a tenant
func (r *GormJobRepository) FindDetails(tenantID, id string) (*models.JobDetails, error) {
	var details models.JobDetails
	err := r.joined().
		Scopes(database.InTenant("jobs", tenantID)).
		Where("jobs.id = ?", id).
		Select(jobDetailsColumns).
		Take(&details).Error
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// FindDetailsByToken loads the joined view by customer access token. No
// tenant predicate applies: the token is the capability.
func (r *GormJobRepository) FindDetailsByToken(token string) (*models.JobDetails, error) {
	var details models.JobDetails
	err := r.joined().
		Where("jobs.customer_access_token = ?", token).
		Select(jobDetailsColumns).
		Take(&details).Error
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// List retrieves joined jobs with filtering and optional pagination
func (r *GormJobRepository) List(filter JobFilter) ([]models.JobDetails, int64, error) {
	query := r.joined().
		Scopes(database.InTenant("jobs", filter.TenantID)).
		Where("jobs.is_archived = ?", filter.Archived)

	if filter.StatusID != "" {
		query = query.Where("jobs.status_id = ?", filter.StatusID)
	}
	if filter.WorkerID != "" {
		query = query.Where("jobs.assigned_worker_id = ?", filter.WorkerID)
	}
	if filter.CustomerID != "" {
		query = query.Where("jobs.customer_id = ?", filter.CustomerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		query = query.Where("(LOWER(jobs.title) LIKE ? OR LOWER(customers.name) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Select(jobDetailsColumns).Order("jobs.created_at DESC")
	if filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	jobs := []models.JobDetails{}
	if err := listQuery.Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListAssigned lists the non-archived jobs assigned to a worker, soonest
// scheduled first and unscheduled last
func (r *GormJobRepository) ListAssigned(tenantID, workerID string) ([]models.JobDetails, error) {
	jobs := []models.JobDetails{}
	err := r.joined().
		Scopes(database.InTenant("jobs", tenantID)).
		Where("jobs.assigned_worker_id = ?", workerID).
		Where("jobs.is_archived = ?", false).
		Select(jobDetailsColumns).
		Order("CASE WHEN jobs.scheduled_date IS NULL THEN 1 ELSE 0 END, jobs.scheduled_date ASC").
		Order("jobs.created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateFields writes only the given columns
func (r *GormJobRepository) UpdateFields(tenantID, id string, fields map[string]interface{}) error {
	return r.db.Model(&models.Job{}).
		Scopes(database.InTenant("jobs", tenantID), database.Active("jobs")).
		Where("jobs.id = ?", id).
		Updates(fields).Error
}
