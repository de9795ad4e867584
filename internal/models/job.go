package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Job struct {
	ID                  string     `gorm:"type:varchar(36);primarykey" json:"id"`
	TenantID            string     `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	CustomerID          string     `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	AssignedWorkerID    *string    `gorm:"type:varchar(36);index" json:"assigned_worker_id"`
	StatusID            string     `gorm:"type:varchar(36);not null;index" json:"status_id"`
	Title               string     `gorm:"type:varchar(255);not null" json:"title"`
	Description         *string    `gorm:"type:text" json:"description"`
	ScheduledDate       *time.Time `json:"scheduled_date"`
	IsArchived          bool       `gorm:"not null;default:false" json:"is_archived"`
	CustomerAccessToken string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"customer_access_token"`
	IsDeleted           bool       `gorm:"not null;default:false" json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// JobDetails is a job joined with the names of its customer, worker and
// status. It is a read model only.
type JobDetails struct {
	Job
	CustomerName string  `json:"customer_name"`
	WorkerName   *string `json:"worker_name"`
	StatusName   string  `json:"status_name"`
	StatusColor  string  `json:"status_color"`
}
