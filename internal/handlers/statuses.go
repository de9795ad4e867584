package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/field-service-api/internal/dto"
	"github.com/yukikurage/field-service-api/internal/services"
)

// StatusHandler serves the job status registry.
type StatusHandler struct {
	statusService *services.StatusService
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(statusService *services.StatusService) *StatusHandler {
	return &StatusHandler{statusService: statusService}
}

func (h *StatusHandler) ListStatuses(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	statuses, err := h.statusService.List(actor.TenantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, statuses)
}

func (h *StatusHandler) GetStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	status, err := h.statusService.Get(actor.TenantID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, status)
}

func (h *StatusHandler) CreateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.statusService.Create(actor.TenantID, services.StatusInput{Name: req.Name, Color: req.Color})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, status)
}

func (h *StatusHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.statusService.Update(actor.TenantID, c.Param("id"), services.StatusInput{Name: req.Name, Color: req.Color})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, status)
}

func (h *StatusHandler) DeleteStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.statusService.Delete(actor.TenantID, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "Job status deleted successfully")
}

// ReorderStatuses sets order_index from the position in statusIds
func (h *StatusHandler) ReorderStatuses(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.ReorderStatusesRequest
	if !bindJSON(c, &req) {
		return
	}

	statuses, err := h.statusService.Reorder(actor.TenantID, req.StatusIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, statuses)
}
