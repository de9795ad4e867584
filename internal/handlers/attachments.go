package handlers

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/field-service-api/internal/constants"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/realtime"
	"github.com/yukikurage/field-service-api/internal/services"
)

// multipartOverhead is the room left for multipart headers around the file.
const multipartOverhead = 1 << 20

// AttachmentHandler serves job file uploads and downloads.
type AttachmentHandler struct {
	attachmentService *services.AttachmentService
	broadcaster       *realtime.Broadcaster
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(attachmentService *services.AttachmentService, broadcaster *realtime.Broadcaster) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		broadcaster:       broadcaster,
	}
}

func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	attachments, err := h.attachmentService.List(actor, c.Param("jobId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, attachments)
}

// UploadAttachment takes one multipart file in the "file" field
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxAttachmentSize+multipartOverhead)
	header, err := c.FormFile(constants.AttachmentFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondServiceError(c, services.ErrFileTooLarge)
			return
		}
		apierrors.BadRequest(c, "No file uploaded")
		return
	}
	if header.Size > constants.MaxAttachmentSize {
		respondServiceError(c, services.ErrFileTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	attachment, err := h.attachmentService.Upload(c.Request.Context(), actor, services.UploadInput{
		JobID:    c.Param("jobId"),
		FileName: header.Filename,
		Content:  file,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.AttachmentCreated(attachment)
	respond(c, http.StatusCreated, attachment)
}

// DownloadAttachment streams the stored bytes
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	attachment, rc, err := h.attachmentService.Download(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": attachment.FileName})
	c.DataFromReader(http.StatusOK, attachment.FileSize, attachment.MimeType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	attachment, err := h.attachmentService.Delete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.AttachmentDeleted(attachment)
	respondMessage(c, "Attachment deleted successfully")
}
