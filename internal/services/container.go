package services

import (
	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/repository"
	"github.com/yukikurage/field-service-api/internal/storage"
)

// Container holds every service wired to one database and byte store.
type Container struct {
	Auth           *AuthService
	Users          *UserService
	Customers      *CustomerService
	Statuses       *StatusService
	Jobs           *JobService
	Tasks          *TaskService
	Attachments    *AttachmentService
	Signatures     *SignatureService
	CustomerAccess *CustomerAccessService
}

// NewContainer builds the GORM repositories and the services on top
func NewContainer(db *gorm.DB, tokens *auth.TokenManager, store storage.Store) *Container {
	tenantRepo := repository.NewTenantRepository(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	statusRepo := repository.NewJobStatusRepository(db)
	jobRepo := repository.NewJobRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	signatureRepo := repository.NewSignatureRepository(db)

	return &Container{
		Auth:           NewAuthService(userRepo, tenantRepo, tokens),
		Users:          NewUserService(userRepo),
		Customers:      NewCustomerService(customerRepo),
		Statuses:       NewStatusService(statusRepo),
		Jobs:           NewJobService(jobRepo, taskRepo, customerRepo, userRepo, statusRepo),
		Tasks:          NewTaskService(taskRepo, jobRepo),
		Attachments:    NewAttachmentService(attachmentRepo, jobRepo, store),
		Signatures:     NewSignatureService(signatureRepo, jobRepo),
		CustomerAccess: NewCustomerAccessService(jobRepo, taskRepo),
	}
}
