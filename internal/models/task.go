package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a checklist item of a job. IsCompleted, CompletedAt and CompletedBy
// are always written together.
type Task struct {
	ID          string     `gorm:"type:varchar(36);primarykey" json:"id"`
	JobID       string     `gorm:"type:varchar(36);not null;index" json:"job_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *string    `gorm:"type:varchar(36)" json:"completed_by"`
	IsDeleted   bool       `gorm:"not null;default:false" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
