package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus struct {
	ID         string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TenantID   string    `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	Color      string    `gorm:"type:varchar(20);not null" json:"color"`
	OrderIndex int       `gorm:"not null;default:0" json:"order_index"`
	IsDeleted  bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *JobStatus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
