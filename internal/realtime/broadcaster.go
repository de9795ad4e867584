package realtime

import (
	"github.com/yukikurage/field-service-api/internal/models"
)

// Broadcaster maps domain changes to room events. A nil Broadcaster or
// one without rooms publishes nothing.
type Broadcaster struct {
	rooms Rooms
}

// NewBroadcaster creates a Broadcaster publishing into rooms
func NewBroadcaster(rooms Rooms) *Broadcaster {
	return &Broadcaster{rooms: rooms}
}

func (b *Broadcaster) publish(event Event, rooms ...string) {
	if b == nil || b.rooms == nil {
		return
	}
	for _, room := range rooms {
		b.rooms.Publish(room, event)
	}
}

func (b *Broadcaster) JobCreated(job *models.JobDetails) {
	b.publish(Event{Type: EventJobCreated, Data: job}, TenantRoom(job.TenantID))
}

// JobUpdated also covers archive and unarchive.
func (b *Broadcaster) JobUpdated(job *models.JobDetails) {
	b.publish(Event{Type: EventJobUpdated, Data: job}, TenantRoom(job.TenantID), JobRoom(job.ID))
}

func (b *Broadcaster) JobDeleted(tenantID, jobID string) {
	b.publish(Event{Type: EventJobDeleted, Data: deleted{ID: jobID}}, TenantRoom(tenantID), JobRoom(jobID))
}

func (b *Broadcaster) TaskCreated(task *models.Task) {
	b.publish(Event{Type: EventTaskCreated, Data: task}, JobRoom(task.JobID))
}

func (b *Broadcaster) TaskUpdated(task *models.Task) {
	b.publish(Event{Type: EventTaskUpdated, Data: task}, JobRoom(task.JobID))
}

func (b *Broadcaster) TaskDeleted(task *models.Task) {
	b.publish(Event{Type: EventTaskDeleted, Data: deleted{ID: task.ID, JobID: task.JobID}}, JobRoom(task.JobID))
}

func (b *Broadcaster) AttachmentCreated(attachment *models.Attachment) {
	b.publish(Event{Type: EventAttachmentCreated, Data: attachment}, JobRoom(attachment.JobID))
}

func (b *Broadcaster) AttachmentDeleted(attachment *models.Attachment) {
	b.publish(Event{Type: EventAttachmentDeleted, Data: deleted{ID: attachment.ID, JobID: attachment.JobID}}, JobRoom(attachment.JobID))
}

func (b *Broadcaster) SignatureCreated(signature *models.Signature) {
	b.publish(Event{Type: EventSignatureCreated, Data: signature}, JobRoom(signature.JobID))
}

func (b *Broadcaster) SignatureDeleted(signature *models.Signature) {
	b.publish(Event{Type: EventSignatureDeleted, Data: deleted{ID: signature.ID, JobID: signature.JobID}}, JobRoom(signature.JobID))
}
