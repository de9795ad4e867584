package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/policy"
	"github.com/yukikurage/field-service-api/internal/repository"
)

// SignatureService records job sign-offs. Signatures are never updated.
type SignatureService struct {
	signatureRepo repository.SignatureRepository
	jobRepo       repository.JobRepository
}

// NewSignatureService creates a new SignatureService
func NewSignatureService(signatureRepo repository.SignatureRepository, jobRepo repository.JobRepository) *SignatureService {
	return &SignatureService{
		signatureRepo: signatureRepo,
		jobRepo:       jobRepo,
	}
}

// CreateSignatureInput represents input for creating a signature
type CreateSignatureInput struct {
	JobID         string
	SignerType    string
	SignerName    string
	SignatureData string
}

// List returns the signatures of a job the actor may read
func (s *SignatureService) List(actor policy.Actor, jobID string) ([]models.Signature, error) {
	job, err := loadJob(s.jobRepo, actor.TenantID, jobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewJob(actor, job); err != nil {
		return nil, policyError(err, ErrJobNotFound)
	}

	signatures, err := s.signatureRepo.ListByJob(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	return signatures, nil
}

// Create records a signature with the actor as signer id
func (s *SignatureService) Create(actor policy.Actor, input CreateSignatureInput) (*models.Signature, error) {
	v := &validator{}
	v.required("jobId", input.JobID)
	signerType := models.SignerType(strings.TrimSpace(input.SignerType))
	if signerType != models.SignerWorker && signerType != models.SignerCustomer {
		v.add("signerType", "signerType must be worker or customer")
	}
	v.required("signerName", input.SignerName)
	v.required("signatureData", input.SignatureData)
	if err := v.err(); err != nil {
		return nil, err
	}

	job, err := loadJob(s.jobRepo, actor.TenantID, input.JobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanCreateSignature(actor, job); err != nil {
		return nil, policyError(err, ErrJobNotFound)
	}

	signerID := actor.UserID
	signature := &models.Signature{
		JobID:         job.ID,
		SignerType:    signerType,
		SignerID:      &signerID,
		SignerName:    strings.TrimSpace(input.SignerName),
		SignatureData: input.SignatureData,
	}
	if err := s.signatureRepo.Create(signature); err != nil {
		return nil, fmt.Errorf("failed to create signature: %w", err)
	}
	return signature, nil
}

// Delete soft deletes a signature. Admin only.
func (s *SignatureService) Delete(actor policy.Actor, id string) (*models.Signature, error) {
	signature, err := s.signatureRepo.FindByID(actor.TenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignatureNotFound
		}
		return nil, fmt.Errorf("failed to find signature: %w", err)
	}
	job, err := loadJob(s.jobRepo, actor.TenantID, signature.JobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, ErrSignatureNotFound
		}
		return nil, err
	}
	if err := policy.CanDeleteSignature(actor, job); err != nil {
		return nil, policyError(err, ErrSignatureNotFound)
	}

	if err := s.signatureRepo.Delete(signature.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignatureNotFound
		}
		return nil, fmt.Errorf("failed to delete signature: %w", err)
	}
	return signature, nil
}
