package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/middleware"
	"github.com/yukikurage/field-service-api/internal/realtime"
	"github.com/yukikurage/field-service-api/internal/services"
)

// RegisterRoutes mounts the REST API under api. Session middleware must
// already be installed on the engine.
func RegisterRoutes(api *gin.RouterGroup, db *gorm.DB, svc *services.Container, tokens *auth.TokenManager, broadcaster *realtime.Broadcaster) {
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	customerHandler := NewCustomerHandler(svc.Customers)
	statusHandler := NewStatusHandler(svc.Statuses)
	jobHandler := NewJobHandler(svc.Jobs, svc.CustomerAccess, broadcaster)
	taskHandler := NewTaskHandler(svc.Tasks, broadcaster)
	attachmentHandler := NewAttachmentHandler(svc.Attachments, broadcaster)
	signatureHandler := NewSignatureHandler(svc.Signatures, broadcaster)
	healthHandler := NewHealthHandler(db)

	requireAuth := middleware.RequireAuth(tokens)
	adminOnly := middleware.AdminOnly()
	staff := middleware.AdminOrWorker()

	api.GET("/health", healthHandler.Health)

	// Auth routes
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
	}

	// User routes (admin)
	users := api.Group("/users", requireAuth, adminOnly)
	{
		users.GET("", userHandler.ListUsers)
		users.GET("/workers", userHandler.ListWorkers)
		users.GET("/:id", userHandler.GetUser)
		users.POST("", userHandler.CreateUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	// Customer routes
	customers := api.Group("/customers", requireAuth, staff)
	{
		customers.GET("", customerHandler.ListCustomers)
		customers.GET("/:id", customerHandler.GetCustomer)
		customers.POST("", adminOnly, customerHandler.CreateCustomer)
		customers.PUT("/:id", adminOnly, customerHandler.UpdateCustomer)
		customers.DELETE("/:id", adminOnly, customerHandler.DeleteCustomer)
	}

	// Job status routes
	statuses := api.Group("/job-statuses", requireAuth, staff)
	{
		statuses.GET("", statusHandler.ListStatuses)
		statuses.GET("/:id", statusHandler.GetStatus)
		statuses.POST("", adminOnly, statusHandler.CreateStatus)
		statuses.POST("/reorder", adminOnly, statusHandler.ReorderStatuses)
		statuses.PUT("/:id", adminOnly, statusHandler.UpdateStatus)
		statuses.DELETE("/:id", adminOnly, statusHandler.DeleteStatus)
	}

	// Public customer link
	api.GET("/jobs/customer/:token", jobHandler.GetCustomerJob)

	// Job routes
	jobs := api.Group("/jobs", requireAuth, staff)
	{
		jobs.GET("", adminOnly, jobHandler.ListJobs)
		jobs.GET("/worker/assigned", jobHandler.ListAssignedJobs)
		jobs.GET("/:id", jobHandler.GetJob)
		jobs.POST("", adminOnly, jobHandler.CreateJob)
		jobs.PUT("/:id", jobHandler.UpdateJob)
		jobs.PATCH("/:id", jobHandler.UpdateJob)
		jobs.POST("/:id/archive", adminOnly, jobHandler.ArchiveJob)
		jobs.POST("/:id/unarchive", adminOnly, jobHandler.UnarchiveJob)
		jobs.DELETE("/:id", adminOnly, jobHandler.DeleteJob)
	}

	// Task routes
	tasks := api.Group("/tasks", requireAuth, staff)
	{
		tasks.GET("/job/:jobId", taskHandler.ListTasks)
		tasks.POST("/job/:jobId", adminOnly, taskHandler.CreateTask)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.POST("/:id/complete", taskHandler.CompleteTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	// Attachment routes
	attachments := api.Group("/attachments", requireAuth, staff)
	{
		attachments.GET("/job/:jobId", attachmentHandler.ListAttachments)
		attachments.POST("/job/:jobId", attachmentHandler.UploadAttachment)
		attachments.GET("/:id/download", attachmentHandler.DownloadAttachment)
		attachments.DELETE("/:id", attachmentHandler.DeleteAttachment)
	}

	// Signature routes
	signatures := api.Group("/signatures", requireAuth, staff)
	{
		signatures.GET("/job/:jobId", signatureHandler.ListSignatures)
		signatures.POST("/job/:jobId", signatureHandler.CreateSignature)
		signatures.DELETE("/:id", adminOnly, signatureHandler.DeleteSignature)
	}
}
