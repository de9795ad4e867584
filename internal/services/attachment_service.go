package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/constants"
	"github.com/yukikurage/field-service-api/internal/logger"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/policy"
	"github.com/yukikurage/field-service-api/internal/repository"
	"github.com/yukikurage/field-service-api/internal/storage"
	"github.com/yukikurage/field-service-api/internal/utils"
)

// AttachmentService stores job files. Metadata lives in the database and
// the bytes in a storage.Store.
type AttachmentService struct {
	attachmentRepo repository.AttachmentRepository
	jobRepo        repository.JobRepository
	store          storage.Store
	maxSize        int64
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(attachmentRepo repository.AttachmentRepository, jobRepo repository.JobRepository, store storage.Store) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		jobRepo:        jobRepo,
		store:          store,
		maxSize:        constants.MaxAttachmentSize,
	}
}

// UploadInput is one uploaded file
type UploadInput struct {
	JobID    string
	FileName string
	Content  io.Reader
}

// List returns the attachments of a job the actor may read
func (s *AttachmentService) List(actor policy.Actor, jobID string) ([]models.Attachment, error) {
	job, err := loadJob(s.jobRepo, actor.TenantID, jobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewJob(actor, job); err != nil {
		return nil, policyError(err, ErrJobNotFound)
	}

	attachments, err := s.attachmentRepo.ListByJob(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// Upload checks size and sniffed content type before anything is written,
// then stores the bytes and records the metadata.
func (s *AttachmentService) Upload(ctx context.Context, actor policy.Actor, input UploadInput) (*models.Attachment, error) {
	job, err := loadJob(s.jobRepo, actor.TenantID, input.JobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanUploadAttachment(actor, job); err != nil {
		return nil, policyError(err, ErrJobNotFound)
	}

	data, err := io.ReadAll(io.LimitReader(input.Content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}
	mimeType, ok := allowedMimeType(data)
	if !ok {
		return nil, ErrUnsupportedFileType
	}

	fileName := filepath.Base(strings.TrimSpace(input.FileName))
	if fileName == "." || fileName == string(filepath.Separator) {
		fileName = "file"
	}

	name, err := utils.GenerateStorageName(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to name file: %w", err)
	}
	locator, err := s.store.Put(ctx, name, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	attachment := &models.Attachment{
		JobID:      job.ID,
		UploadedBy: actor.UserID,
		FileName:   fileName,
		FilePath:   locator,
		FileSize:   int64(len(data)),
		MimeType:   mimeType,
	}
	if err := s.attachmentRepo.Create(attachment); err != nil {
		s.removeBytes(ctx, locator)
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}
	return attachment, nil
}

// Download opens the bytes of an attachment. The caller closes the reader.
func (s *AttachmentService) Download(ctx context.Context, actor policy.Actor, id string) (*models.Attachment, io.ReadCloser, error) {
	attachment, job, err := s.load(actor.TenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.CanViewJob(actor, job); err != nil {
		return nil, nil, policyError(err, ErrAttachmentNotFound)
	}

	rc, err := s.store.Open(ctx, attachment.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidLocator) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return attachment, rc, nil
}

// Delete soft deletes the row, then removes the bytes. A failed byte
// removal leaves an orphan file and is only logged.
func (s *AttachmentService) Delete(ctx context.Context, actor policy.Actor, id string) (*models.Attachment, error) {
	attachment, job, err := s.load(actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanDeleteAttachment(actor, job, attachment); err != nil {
		return nil, policyError(err, ErrAttachmentNotFound)
	}

	if err := s.attachmentRepo.Delete(attachment.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to delete attachment: %w", err)
	}
	s.removeBytes(ctx, attachment.FilePath)
	return attachment, nil
}

func (s *AttachmentService) removeBytes(ctx context.Context, locator string) {
	if err := s.store.Delete(ctx, locator); err != nil {
		logger.GetLogger().Warn("Failed to remove attachment file",
			zap.String("locator", locator),
			zap.Error(err),
		)
	}
}

func (s *AttachmentService) load(tenantID, id string) (*models.Attachment, *models.Job, error) {
	attachment, err := s.attachmentRepo.FindByID(tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to find attachment: %w", err)
	}
	job, err := loadJob(s.jobRepo, tenantID, attachment.JobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, err
	}
	return attachment, job, nil
}

// allowedMimeType sniffs data and returns the matching allow-listed type
func allowedMimeType(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	for _, allowed := range constants.AllowedAttachmentMimeTypes {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}
