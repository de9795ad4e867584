// Package policy decides whether an actor may perform an operation on a job
// or one of its children. Every function is pure and must be given freshly
// loaded resource state.
package policy

import (
	"errors"

	"github.com/yukikurage/field-service-api/internal/models"
)

var (
	// ErrNotFound hides resources of other tenants.
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("access denied")
)

// Actor is the authenticated caller.
type Actor struct {
	UserID   string
	TenantID string
	Role     models.Role
}

func (a Actor) IsAdmin() bool  { return a.Role == models.RoleAdmin }
func (a Actor) IsWorker() bool { return a.Role == models.RoleWorker }

// Resource names used by the mutable field allow-list.
type Resource string

const (
	ResourceJob  Resource = "job"
	ResourceTask Resource = "task"
)

const anyField = "*"

// mutableFields is the per-role allow-list of payload keys on update.
var mutableFields = map[models.Role]map[Resource][]string{
	models.RoleAdmin: {
		ResourceJob:  {anyField},
		ResourceTask: {anyField},
	},
	models.RoleWorker: {
		ResourceJob: {"statusId"},
	},
}

// CheckFields rejects the whole payload if any key is outside the role's
// allow-list for the resource.
func CheckFields(role models.Role, resource Resource, keys []string) error {
	allowed := mutableFields[role][resource]
	if len(allowed) == 0 {
		return ErrForbidden
	}
	set := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		if f == anyField {
			return nil
		}
		set[f] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := set[k]; !ok {
			return ErrForbidden
		}
	}
	return nil
}

func sameTenant(actor Actor, job *models.Job) error {
	if job == nil || job.TenantID != actor.TenantID {
		return ErrNotFound
	}
	return nil
}

func assignedTo(job *models.Job, userID string) bool {
	return job.AssignedWorkerID != nil && *job.AssignedWorkerID == userID
}

// CanViewJob covers reading a job and its tasks, attachments and signatures.
func CanViewJob(actor Actor, job *models.Job) error {
	if err := sameTenant(actor, job); err != nil {
		return err
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleWorker:
		if assignedTo(job, actor.UserID) {
			return nil
		}
	}
	return ErrForbidden
}

// CanManageJobs covers create, archive, unarchive and delete.
func CanManageJobs(actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanUpdateJob checks ownership and the field allow-list together.
func CanUpdateJob(actor Actor, job *models.Job, keys []string) error {
	if err := CanViewJob(actor, job); err != nil {
		return err
	}
	return CheckFields(actor.Role, ResourceJob, keys)
}

// CanEditTasks covers creating, editing and deleting raw task fields.
func CanEditTasks(actor Actor, job *models.Job) error {
	if err := sameTenant(actor, job); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanCompleteTask covers the completion toggle.
func CanCompleteTask(actor Actor, job *models.Job) error {
	return CanViewJob(actor, job)
}

// CanUploadAttachment covers attachment ingestion.
func CanUploadAttachment(actor Actor, job *models.Job) error {
	return CanViewJob(actor, job)
}

// CanDeleteAttachment requires workers to be both assignee and uploader.
func CanDeleteAttachment(actor Actor, job *models.Job, attachment *models.Attachment) error {
	if err := CanViewJob(actor, job); err != nil {
		return err
	}
	if attachment == nil || attachment.JobID != job.ID {
		return ErrNotFound
	}
	if actor.IsWorker() && attachment.UploadedBy != actor.UserID {
		return ErrForbidden
	}
	return nil
}

// CanCreateSignature covers signing a job.
func CanCreateSignature(actor Actor, job *models.Job) error {
	return CanViewJob(actor, job)
}

// CanDeleteSignature is admin only.
func CanDeleteSignature(actor Actor, job *models.Job) error {
	if err := sameTenant(actor, job); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
