package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/field-service-api/internal/dto"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/realtime"
	"github.com/yukikurage/field-service-api/internal/services"
)

// TaskHandler serves the job checklist routes.
type TaskHandler struct {
	taskService *services.TaskService
	broadcaster *realtime.Broadcaster
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, broadcaster *realtime.Broadcaster) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		broadcaster: broadcaster,
	}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(actor, c.Param("jobId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(actor, services.CreateTaskInput{
		JobID:       c.Param("jobId"),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.TaskCreated(task)
	respond(c, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := dto.ParseTaskPatch(body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	task, err := h.taskService.Update(actor, c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.TaskUpdated(task)
	respond(c, http.StatusOK, task)
}

// CompleteTask sets or clears completion; an empty body completes
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CompleteTaskRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	complete := req.Complete == nil || *req.Complete

	task, err := h.taskService.Complete(actor, c.Param("id"), complete)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.TaskUpdated(task)
	respond(c, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := h.taskService.Delete(actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.TaskDeleted(task)
	respondMessage(c, "Task deleted successfully")
}
