package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/field-service-api/internal/models"
)

// ErrStatusInUse is returned when deleting a status referenced by a live job.
var ErrStatusInUse = errors.New("job status is referenced by active jobs")

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	// Create creates a new tenant
	Create(tenant *models.Tenant) error

	// FindByID finds a non-deleted tenant by ID
	FindByID(id string) (*models.Tenant, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user of a tenant
	FindByID(tenantID, id string) (*models.User, error)

	// FindByEmail finds a user by email across all tenants
	FindByEmail(email string) (*models.User, error)

	// List lists the users of a tenant, optionally restricted to one role
	List(tenantID string, role *models.Role) ([]models.User, error)

	// Update saves every column of the user
	Update(user *models.User) error

	// Delete soft deletes a user
	Delete(tenantID, id string) error
}

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	Create(customer *models.Customer) error
	FindByID(tenantID, id string) (*models.Customer, error)
	List(tenantID, search string) ([]models.Customer, error)
	Update(customer *models.Customer) error
	Delete(tenantID, id string) error
}

// JobStatusRepository defines the interface for job status data access
type JobStatusRepository interface {
	// List returns the statuses of a tenant ordered by order_index
	List(tenantID string) ([]models.JobStatus, error)

	// FindByID finds a status of a tenant
	FindByID(tenantID, id string) (*models.JobStatus, error)

	// Append creates the status after the current last one
	Append(status *models.JobStatus) error

	// Update saves name and color
	Update(status *models.JobStatus) error

	// Delete soft deletes the status unless a live job references it
	Delete(tenantID, id string) error

	// Reorder sets order_index to the position of each id of the tenant
	Reorder(tenantID string, ids []string) error
}

// JobFilter holds filtering options for listing jobs
type JobFilter struct {
	TenantID   string
	StatusID   string
	WorkerID   string
	CustomerID string
	Search     string
	Archived   bool
	Page       int
	PageSize   int
}

// JobRepository defines the interface for job data access
type JobRepository interface {
	// Create creates a new job
	Create(job *models.Job) error

	// FindByID loads the raw job row of a tenant
	FindByID(tenantID, id string) (*models.Job, error)

	// FindDetails loads the joined view of a job of a tenant
	FindDetails(tenantID, id string) (*models.JobDetails, error)

	// FindDetailsByToken loads the joined view by customer access token
	FindDetailsByToken(token string) (*models.JobDetails, error)

	// List retrieves joined jobs with filtering and optional pagination
	List(filter JobFilter) ([]models.JobDetails, int64, error)

	// ListAssigned lists the non-archived jobs assigned to a worker
	ListAssigned(tenantID, workerID string) ([]models.JobDetails, error)

	// UpdateFields writes only the given columns
	UpdateFields(tenantID, id string, fields map[string]interface{}) error
}

// TaskRepository defines the interface for task data access. Every lookup
// goes through the parent job so deleted or foreign jobs hide their tasks.
type TaskRepository interface {
	Create(task *models.Task) error
	FindByID(tenantID, id string) (*models.Task, error)
	ListByJob(jobID string) ([]models.Task, error)
	UpdateFields(id string, fields map[string]interface{}) error
	SetCompletion(id string, completed bool, at *time.Time, by *string) error
	Delete(id string) error
}

// AttachmentRepository defines the interface for attachment metadata access
type AttachmentRepository interface {
	Create(attachment *models.Attachment) error
	FindByID(tenantID, id string) (*models.Attachment, error)
	ListByJob(jobID string) ([]models.Attachment, error)
	Delete(id string) error
}

// SignatureRepository defines the interface for signature data access
type SignatureRepository interface {
	Create(signature *models.Signature) error
	FindByID(tenantID, id string) (*models.Signature, error)
	ListByJob(jobID string) ([]models.Signature, error)
	Delete(id string) error
}
