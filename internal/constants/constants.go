package constants

// Context keys used in gin contexts
const (
	ContextKeyIdentity  = "identity"
	ContextKeyLogger    = "logger"
	ContextKeyRequestID = "request_id"
)

// Session
const (
	SessionCookieName  = "fsm_session"
	SessionRefreshKey  = "refresh_token"
	SessionMaxAgeHours = 24 * 7
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Users
const (
	MinPasswordLength = 6
)

// Job statuses
const (
	DefaultStatusColor = "#6366f1"
)

// Attachments
const (
	MaxAttachmentSize   = 10 << 20
	AttachmentFormField = "file"
)

// AllowedAttachmentMimeTypes lists the content types accepted on upload.
var AllowedAttachmentMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"text/csv",
}

// Realtime
const (
	RealtimeSendBuffer = 64
)
