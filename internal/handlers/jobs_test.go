package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/field-service-api/internal/dto"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/realtime"
)

func (e *testEnv) reloadJob(id string) models.Job {
	var job models.Job
	require.NoError(e.t, e.db.First(&job, "id = ?", id).Error)
	return job
}

func TestWorkerMayOnlyChangeStatusOfAssignedJob(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Boiler service", env.worker)

	w := env.do(http.MethodPut, "/api/jobs/"+job.ID, env.worker, map[string]interface{}{
		"statusId": env.statusDone.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.JobDetails
	decode(t, w, &updated)
	assert.Equal(t, env.statusDone.ID, updated.StatusID)
	assert.Equal(t, "Completed", updated.StatusName)
	assert.Equal(t, "Acme Corporation", updated.CustomerName)

	// Any other key rejects the whole update
	w = env.do(http.MethodPut, "/api/jobs/"+job.ID, env.worker, map[string]interface{}{
		"statusId": env.statusNew.ID,
		"title":    "Renamed",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	res := decode(t, w, nil)
	assert.Equal(t, "FORBIDDEN", res.Code)

	stored := env.reloadJob(job.ID)
	assert.Equal(t, "Boiler service", stored.Title)
	assert.Equal(t, env.statusDone.ID, stored.StatusID)
}

func TestWorkerCannotTouchOtherJobs(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Roof repair", env.otherWorker)

	w := env.do(http.MethodGet, "/api/jobs/"+job.ID, env.worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, "/api/jobs/"+job.ID, env.worker, map[string]interface{}{"statusId": env.statusDone.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, env.statusNew.ID, env.reloadJob(job.ID).StatusID)

	w = env.do(http.MethodGet, "/api/jobs", env.worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOtherTenantJobIsNotFound(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Pipe fitting", env.worker)

	other := env.createTenant("Globex")
	outsider := env.createUser(other.ID, "admin@globex.test", models.RoleAdmin)

	w := env.do(http.MethodGet, "/api/jobs/"+job.ID, outsider, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPut, "/api/jobs/"+job.ID, outsider, map[string]interface{}{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/api/jobs/"+job.ID, outsider, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, "Pipe fitting", env.reloadJob(job.ID).Title)
	assert.False(t, env.reloadJob(job.ID).IsDeleted)
}

func TestCustomerLinkHidesTokenAndStopsAfterDelete(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Window cleaning", env.worker)
	require.NoError(t, env.db.Create(&models.Task{JobID: job.ID, Title: "Front windows"}).Error)

	w := env.do(http.MethodGet, "/api/jobs/customer/"+job.CustomerAccessToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), job.CustomerAccessToken)

	var view dto.CustomerJobView
	decode(t, w, &view)
	assert.Equal(t, job.ID, view.ID)
	assert.Equal(t, "Acme Corporation", view.CustomerName)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "Front windows", view.Tasks[0].Title)

	// Archived jobs still resolve
	w = env.do(http.MethodPost, "/api/jobs/"+job.ID+"/archive", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/jobs/customer/"+job.CustomerAccessToken, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/api/jobs/"+job.ID, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/jobs/customer/"+job.CustomerAccessToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/jobs/customer/unknown-token", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateJobValidation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(http.MethodPost, "/api/jobs", env.admin, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	res := decode(t, w, nil)
	assert.Equal(t, "VALIDATION_FAILED", res.Code)
	fields := []string{}
	for _, d := range res.Details {
		fields = append(fields, d["field"])
	}
	assert.ElementsMatch(t, []string{"customerId", "statusId", "title"}, fields)

	other := env.createTenant("Globex")
	foreignWorker := env.createUser(other.ID, "worker@globex.test", models.RoleWorker)
	w = env.do(http.MethodPost, "/api/jobs", env.admin, map[string]interface{}{
		"customerId":       env.customer.ID,
		"statusId":         env.statusNew.ID,
		"title":            "Install heater",
		"assignedWorkerId": foreignWorker.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	res = decode(t, w, nil)
	require.Len(t, res.Details, 1)
	assert.Equal(t, "assignedWorkerId", res.Details[0]["field"])

	w = env.do(http.MethodPost, "/api/jobs", env.admin, map[string]interface{}{
		"customerId":       env.customer.ID,
		"statusId":         env.statusNew.ID,
		"title":            "Install heater",
		"assignedWorkerId": env.admin.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJobBroadcastsAndGeneratesToken(t *testing.T) {
	env := setupTestEnv(t)
	tenantRoom := joinRoom(env, realtime.TenantRoom(env.tenant.ID))

	w := env.do(http.MethodPost, "/api/jobs", env.admin, map[string]interface{}{
		"customerId":       env.customer.ID,
		"statusId":         env.statusNew.ID,
		"title":            "Install heater",
		"assignedWorkerId": env.worker.ID,
		"scheduledDate":    "2024-05-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.JobDetails
	decode(t, w, &created)
	assert.NotEmpty(t, created.CustomerAccessToken)
	require.NotNil(t, created.WorkerName)
	assert.Equal(t, env.worker.Name, *created.WorkerName)
	require.NotNil(t, created.ScheduledDate)
	assert.Equal(t, 2024, created.ScheduledDate.Year())

	event := nextEvent(t, tenantRoom)
	assert.Equal(t, realtime.EventJobCreated, event.Type)
}

func TestUpdateJobAbsentVersusNull(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Gutter cleaning", env.worker)
	scheduled := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, env.db.Model(&models.Job{}).Where("id = ?", job.ID).Update("scheduled_date", scheduled).Error)

	jobRoom := joinRoom(env, realtime.JobRoom(job.ID))

	w := env.do(http.MethodPut, "/api/jobs/"+job.ID, env.admin, `{"assignedWorkerId": null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := env.reloadJob(job.ID)
	assert.Nil(t, stored.AssignedWorkerID)
	require.NotNil(t, stored.ScheduledDate)
	assert.True(t, scheduled.Equal(*stored.ScheduledDate))

	w = env.do(http.MethodPut, "/api/jobs/"+job.ID, env.admin, `{"scheduledDate": null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, env.reloadJob(job.ID).ScheduledDate)

	assert.Equal(t, realtime.EventJobUpdated, nextEvent(t, jobRoom).Type)
	assert.Equal(t, realtime.EventJobUpdated, nextEvent(t, jobRoom).Type)

	w = env.do(http.MethodPut, "/api/jobs/"+job.ID, env.admin, `{"title": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/jobs/"+job.ID, env.admin, `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListJobsFiltersAndPagination(t *testing.T) {
	env := setupTestEnv(t)
	env.createJob("Boiler service", env.worker)
	env.createJob("Roof repair", env.otherWorker)
	archived := env.createJob("Old job", env.worker)
	require.NoError(t, env.db.Model(&models.Job{}).Where("id = ?", archived.ID).Update("is_archived", true).Error)

	var jobs []models.JobDetails
	w := env.do(http.MethodGet, "/api/jobs", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &jobs)
	assert.Len(t, jobs, 2)

	w = env.do(http.MethodGet, "/api/jobs?workerId="+env.worker.ID, env.admin, nil)
	decode(t, w, &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Boiler service", jobs[0].Title)

	w = env.do(http.MethodGet, "/api/jobs?search=ACME", env.admin, nil)
	decode(t, w, &jobs)
	assert.Len(t, jobs, 2)

	w = env.do(http.MethodGet, "/api/jobs?search=roof", env.admin, nil)
	decode(t, w, &jobs)
	assert.Len(t, jobs, 1)

	w = env.do(http.MethodGet, "/api/jobs?archived=true", env.admin, nil)
	decode(t, w, &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Old job", jobs[0].Title)

	w = env.do(http.MethodGet, "/api/jobs?page=1&limit=1", env.admin, nil)
	res := decode(t, w, &jobs)
	assert.Len(t, jobs, 1)
	require.NotNil(t, res.Pagination)
	assert.EqualValues(t, 2, res.Pagination["total"])
	assert.EqualValues(t, 2, res.Pagination["totalPages"])
}

func TestWorkerAssignedJobs(t *testing.T) {
	env := setupTestEnv(t)
	later := env.createJob("Later", env.worker)
	sooner := env.createJob("Sooner", env.worker)
	env.createJob("Unscheduled", env.worker)
	env.createJob("Not mine", env.otherWorker)

	require.NoError(t, env.db.Model(&models.Job{}).Where("id = ?", later.ID).Update("scheduled_date", time.Now().Add(48*time.Hour)).Error)
	require.NoError(t, env.db.Model(&models.Job{}).Where("id = ?", sooner.ID).Update("scheduled_date", time.Now().Add(24*time.Hour)).Error)

	var jobs []models.JobDetails
	w := env.do(http.MethodGet, "/api/jobs/worker/assigned", env.worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &jobs)
	require.Len(t, jobs, 3)
	assert.Equal(t, "Sooner", jobs[0].Title)
	assert.Equal(t, "Later", jobs[1].Title)
	assert.Equal(t, "Unscheduled", jobs[2].Title)
}

func TestDeleteJobHidesChildren(t *testing.T) {
	env := setupTestEnv(t)
	job := env.createJob("Fence repair", env.worker)
	task := &models.Task{JobID: job.ID, Title: "Buy posts"}
	require.NoError(t, env.db.Create(task).Error)

	tenantRoom := joinRoom(env, realtime.TenantRoom(env.tenant.ID))

	w := env.do(http.MethodDelete, "/api/jobs/"+job.ID, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, realtime.EventJobDeleted, nextEvent(t, tenantRoom).Type)

	w = env.do(http.MethodGet, "/api/jobs/"+job.ID, env.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPut, "/api/tasks/"+task.ID, env.admin, map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/tasks/job/"+job.ID, env.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
