package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/services"
)

// CreateJobRequest is the body of POST /jobs
type CreateJobRequest struct {
	CustomerID       string  `json:"customerId"`
	StatusID         string  `json:"statusId"`
	Title            string  `json:"title"`
	AssignedWorkerID *string `json:"assignedWorkerId"`
	Description      *string `json:"description"`
	ScheduledDate    *string `json:"scheduledDate"`
}

// JobView is the joined job with its tasks
type JobView struct {
	models.JobDetails
	Tasks []models.Task `json:"tasks"`
}

// CustomerJobView is what the shareable link exposes. It carries neither
// the access token nor tenant or reference ids.
type CustomerJobView struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   *string       `json:"description"`
	ScheduledDate *time.Time    `json:"scheduled_date"`
	IsArchived    bool          `json:"is_archived"`
	CustomerName  string        `json:"customer_name"`
	WorkerName    *string       `json:"worker_name"`
	StatusName    string        `json:"status_name"`
	StatusColor   string        `json:"status_color"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Tasks         []models.Task `json:"tasks"`
}

// ToJobView converts a service result to JobView
func ToJobView(job *services.JobWithTasks) JobView {
	return JobView{
		JobDetails: *job.Job,
		Tasks:      job.Tasks,
	}
}

// ToCustomerJobView converts a service result to CustomerJobView
func ToCustomerJobView(job *services.JobWithTasks) CustomerJobView {
	d := job.Job
	return CustomerJobView{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		ScheduledDate: d.ScheduledDate,
		IsArchived:    d.IsArchived,
		CustomerName:  d.CustomerName,
		WorkerName:    d.WorkerName,
		StatusName:    d.StatusName,
		StatusColor:   d.StatusColor,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Tasks:         job.Tasks,
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 timestamps and plain dates
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid date")
}
