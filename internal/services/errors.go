package services

import (
	"errors"
	"strings"

	"github.com/yukikurage/field-service-api/internal/policy"
)

// Generic error kinds. Specific sentinels below match one of these through
// errors.Is so handlers only need to switch on the kind.
var (
	ErrNotFound  = policy.ErrNotFound
	ErrForbidden = policy.ErrForbidden
	ErrConflict  = errors.New("conflict")
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTenantInactive     = errors.New("tenant is not active")
)

var (
	ErrUserNotFound       = kindOf(ErrNotFound, "user not found")
	ErrCustomerNotFound   = kindOf(ErrNotFound, "customer not found")
	ErrStatusNotFound     = kindOf(ErrNotFound, "job status not found")
	ErrJobNotFound        = kindOf(ErrNotFound, "job not found")
	ErrTaskNotFound       = kindOf(ErrNotFound, "task not found")
	ErrAttachmentNotFound = kindOf(ErrNotFound, "attachment not found")
	ErrSignatureNotFound  = kindOf(ErrNotFound, "signature not found")
	ErrFileNotFound       = kindOf(ErrNotFound, "file not found on server")

	ErrWorkerFieldRestricted = kindOf(ErrForbidden, "workers can only update job status")

	ErrEmailTaken  = kindOf(ErrConflict, "email already exists")
	ErrStatusInUse = kindOf(ErrConflict, "cannot delete status that is in use by jobs")
)

// Upload rejections.
var (
	ErrFileTooLarge        = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedFileType = errors.New("invalid file type, only images, PDFs, and common document formats are allowed")
)

type kindError struct {
	kind error
	msg  string
}

func kindOf(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError enumerates every invalid field of an input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validator collects field errors while checking an input.
type validator struct {
	fields []FieldError
}

func (v *validator) add(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, field+" is required")
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// policyError swaps the generic policy NotFound for the resource's own.
func policyError(err, notFound error) error {
	if errors.Is(err, policy.ErrNotFound) {
		return notFound
	}
	return err
}
