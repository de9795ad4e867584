package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/field-service-api/internal/dto"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/realtime"
	"github.com/yukikurage/field-service-api/internal/services"
	"github.com/yukikurage/field-service-api/internal/utils"
)

// JobHandler serves the job routes and the public customer link.
type JobHandler struct {
	jobService    *services.JobService
	accessService *services.CustomerAccessService
	broadcaster   *realtime.Broadcaster
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService *services.JobService, accessService *services.CustomerAccessService, broadcaster *realtime.Broadcaster) *JobHandler {
	return &JobHandler{
		jobService:    jobService,
		accessService: accessService,
		broadcaster:   broadcaster,
	}
}

// ListJobs filters by statusId, workerId, customerId, search and archived.
// page or limit switch on pagination.
func (h *JobHandler) ListJobs(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	archived, _ := strconv.ParseBool(c.DefaultQuery("archived", "false"))
	input := services.ListJobsInput{
		StatusID:   c.Query("statusId"),
		WorkerID:   c.Query("workerId"),
		CustomerID: c.Query("customerId"),
		Search:     c.Query("search"),
		Archived:   archived,
	}
	page := utils.OptionalPaginationParams(c)
	if page != nil {
		input.Page = page.Page
		input.PageSize = page.Limit
	}

	jobs, total, err := h.jobService.List(actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if page != nil {
		respondPage(c, jobs, utils.NewPaginationResponse(*page, total))
		return
	}
	respond(c, http.StatusOK, jobs)
}

// ListAssignedJobs returns the caller's own active jobs
func (h *JobHandler) ListAssignedJobs(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	jobs, err := h.jobService.ListAssigned(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	job, err := h.jobService.Get(actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, dto.ToJobView(job))
}

// GetCustomerJob resolves the public read-only link. No credential.
func (h *JobHandler) GetCustomerJob(c *gin.Context) {
	job, err := h.accessService.Resolve(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, dto.ToCustomerJobView(job))
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.CreateJobInput{
		CustomerID:       req.CustomerID,
		StatusID:         req.StatusID,
		Title:            req.Title,
		AssignedWorkerID: req.AssignedWorkerID,
		Description:      req.Description,
	}
	if req.ScheduledDate != nil && *req.ScheduledDate != "" {
		t, err := dto.ParseDate(*req.ScheduledDate)
		if err != nil {
			apierrors.ValidationFailed(c, []apierrors.FieldError{{Field: "scheduledDate", Message: "scheduledDate must be a valid date"}})
			return
		}
		input.ScheduledDate = &t
	}

	job, err := h.jobService.Create(actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.JobCreated(job)
	respond(c, http.StatusCreated, job)
}

// UpdateJob applies a partial update. Keys absent from the body are left
// untouched and null clears the optional ones.
func (h *JobHandler) UpdateJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	patch, err := dto.ParseJobPatch(body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	job, err := h.jobService.Update(actor, c.Param("id"), patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.JobUpdated(job)
	respond(c, http.StatusOK, job)
}

func (h *JobHandler) ArchiveJob(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *JobHandler) UnarchiveJob(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *JobHandler) setArchived(c *gin.Context, archived bool) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	job, err := h.jobService.SetArchived(actor, c.Param("id"), archived)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.JobUpdated(job)
	respond(c, http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.jobService.Delete(actor, id); err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.JobDeleted(actor.TenantID, id)
	respondMessage(c, "Job deleted successfully")
}
