// Package realtime fans job events out to connected WebSocket sessions
// grouped in rooms.
package realtime

const (
	EventJobCreated        = "job:created"
	EventJobUpdated        = "job:updated"
	EventJobDeleted        = "job:deleted"
	EventTaskCreated       = "task:created"
	EventTaskUpdated       = "task:updated"
	EventTaskDeleted       = "task:deleted"
	EventAttachmentCreated = "attachment:created"
	EventAttachmentDeleted = "attachment:deleted"
	EventSignatureCreated  = "signature:created"
	EventSignatureDeleted  = "signature:deleted"

	// Session control replies
	EventJoined = "room:joined"
	EventLeft   = "room:left"
	EventError  = "error"
)

// Event is one message pushed to a session.
type Event struct {
	Type string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

const (
	tenantRoomPrefix = "tenant:"
	jobRoomPrefix    = "job:"
)

// TenantRoom names the room every session of a tenant joins on connect.
func TenantRoom(tenantID string) string {
	return tenantRoomPrefix + tenantID
}

// JobRoom names the room of a single job.
func JobRoom(jobID string) string {
	return jobRoomPrefix + jobID
}

type deleted struct {
	ID    string `json:"id"`
	JobID string `json:"job_id,omitempty"`
}
