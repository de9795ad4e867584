package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SignerType string

const (
	SignerWorker   SignerType = "worker"
	SignerCustomer SignerType = "customer"
)

// Signature is immutable once created; it can only be soft deleted.
type Signature struct {
	ID            string     `gorm:"type:varchar(36);primarykey" json:"id"`
	JobID         string     `gorm:"type:varchar(36);not null;index" json:"job_id"`
	SignerType    SignerType `gorm:"type:varchar(20);not null" json:"signer_type"`
	SignerID      *string    `gorm:"type:varchar(36)" json:"signer_id"`
	SignerName    string     `gorm:"type:varchar(255);not null" json:"signer_name"`
	SignatureData string     `gorm:"type:text;not null" json:"signature_data"`
	SignedAt      time.Time  `gorm:"not null" json:"signed_at"`
	IsDeleted     bool       `gorm:"not null;default:false" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Signature) TableName() string {
	return "job_signatures"
}

func (s *Signature) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SignedAt.IsZero() {
		s.SignedAt = time.Now()
	}
	return nil
}
