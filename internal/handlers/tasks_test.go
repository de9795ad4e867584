package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/realtime"
)

func TestTaskLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Boiler service", env.worker)
	jobRoom := joinRoom(env, realtime.JobRoom(job.ID))

	w := env.do(http.MethodPost, "/api/tasks/job/"+job.ID, env.admin, map[string]interface{}{
		"title":       "Check pressure",
		"description": "Gauge on the left",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task models.Task
	decode(t, w, &task)
	assert.False(t, task.IsCompleted)
	assert.Equal(t, realtime.EventTaskCreated, nextEvent(t, jobRoom).Type)

	w = env.do(http.MethodPut, "/api/tasks/"+task.ID, env.admin, `{"description": null}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &task)
	assert.Nil(t, task.Description)
	assert.Equal(t, "Check pressure", task.Title)
	assert.Equal(t, realtime.EventTaskUpdated, nextEvent(t, jobRoom).Type)

	w = env.do(http.MethodGet, "/api/tasks/job/"+job.ID, env.worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.Task
	decode(t, w, &tasks)
	assert.Len(t, tasks, 1)

	w = env.do(http.MethodDelete, "/api/tasks/"+task.ID, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	event := nextEvent(t, jobRoom)
	assert.Equal(t, realtime.EventTaskDeleted, event.Type)

	w = env.do(http.MethodDelete, "/api/tasks/"+task.ID, env.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteTaskWritesCompletionTogether(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Boiler service", env.worker)
	task := &models.Task{JobID: job.ID, Title: "Check pressure"}
	require.NoError(t, env.db.Create(task).Error)

	w := env.do(http.MethodPost, "/api/tasks/"+task.ID+"/complete", env.worker, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var completed models.Task
	decode(t, w, &completed)
	assert.True(t, completed.IsCompleted)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.CompletedBy)
	assert.Equal(t, env.worker.ID, *completed.CompletedBy)

	w = env.do(http.MethodPost, "/api/tasks/"+task.ID+"/complete", env.worker, map[string]interface{}{"complete": false})
	require.Equal(t, http.StatusOK, w.Code)
	var reopened models.Task
	decode(t, w, &reopened)
	assert.False(t, reopened.IsCompleted)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.CompletedBy)

	w = env.do(http.MethodPost, "/api/tasks/"+task.ID+"/complete", env.otherWorker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWorkerCannotEditTasks(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Boiler service", env.worker)
	task := &models.Task{JobID: job.ID, Title: "Check pressure"}
	require.NoError(t, env.db.Create(task).Error)

	w := env.do(http.MethodPost, "/api/tasks/job/"+job.ID, env.worker, map[string]interface{}{"title": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, "/api/tasks/"+task.ID, env.worker, map[string]interface{}{"title": "Renamed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodDelete, "/api/tasks/"+task.ID, env.worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var stored models.Task
	require.NoError(t, env.db.First(&stored, "id = ?", task.ID).Error)
	assert.Equal(t, "Check pressure", stored.Title)
	assert.False(t, stored.IsDeleted)
}

func TestCreateTaskRequiresFields(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Boiler service", env.worker)

	w := env.do(http.MethodPost, "/api/tasks/job/"+job.ID, env.admin, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	res := decode(t, w, nil)
	assert.Equal(t, "VALIDATION_FAILED", res.Code)
	require.Len(t, res.Details, 1)
	assert.Equal(t, "title", res.Details[0]["field"])
}

func TestCreateTaskTakesJobFromPath(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Boiler service", env.worker)

	w := env.do(http.MethodPost, "/api/tasks/job/missing-job", env.admin, map[string]interface{}{"title": "Orphan"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/tasks/job/"+job.ID, env.admin, map[string]interface{}{"title": "Check pressure"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task models.Task
	decode(t, w, &task)
	assert.Equal(t, job.ID, task.JobID)

	// The old body-addressed route is gone
	w = env.do(http.MethodPost, "/api/tasks", env.admin, map[string]interface{}{"jobId": job.ID, "title": "Body"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
