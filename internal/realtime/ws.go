package realtime

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/constants"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/logger"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/policy"
)

const (
	actionJoinJob  = "join-job"
	actionLeaveJob = "leave-job"

	writeTimeout = 5 * time.Second

	requestIDHeader = "X-Request-ID"
)

// JobAccess decides whether a session may join the room of a job.
type JobAccess func(actor policy.Actor, jobID string) error

type clientMessage struct {
	Action string `json:"action"`
	JobID  string `json:"jobId"`
}

// Server upgrades authenticated requests to WebSocket sessions.
type Server struct {
	rooms          Rooms
	tokens         *auth.TokenManager
	access         JobAccess
	originPatterns []string
}

// NewServer creates a WebSocket endpoint. originPatterns empty means same
// origin only.
func NewServer(rooms Rooms, tokens *auth.TokenManager, access JobAccess, originPatterns []string) *Server {
	return &Server{
		rooms:          rooms,
		tokens:         tokens,
		access:         access,
		originPatterns: originPatterns,
	}
}

// ServeHTTP serves GET /ws?token=<access token>. It must be mounted on a
// plain http.ResponseWriter since the upgrade hijacks the connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLogger()
	if requestID := r.Header.Get(requestIDHeader); requestID != "" {
		log = log.With(zap.String("request_id", requestID))
	}

	identity, err := s.tokens.Verify(r.URL.Query().Get("token"), auth.AccessToken)
	if err != nil {
		apierrors.WriteError(w, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Invalid or expired token"))
		return
	}
	if identity.Role != models.RoleAdmin && identity.Role != models.RoleWorker {
		apierrors.WriteError(w, http.StatusForbidden, apierrors.NewAPIError(apierrors.ErrCodeForbidden, "Access denied"))
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	log = log.With(
		zap.String("user_id", identity.UserID),
		zap.String("tenant_id", identity.TenantID),
	)
	conn := NewConn(identity, constants.RealtimeSendBuffer)
	s.rooms.Join(TenantRoom(identity.TenantID), conn)
	defer s.rooms.Remove(conn)

	log.Debug("Realtime session opened", zap.String("session_id", conn.ID))
	s.serve(r.Context(), ws, conn, log)
	log.Debug("Realtime session closed", zap.String("session_id", conn.ID))
}

// serve runs the reader in a goroutine and the single writer in the
// calling goroutine until either side ends. It returns only after the
// reader has stopped, so no join can follow the session removal.
func (s *Server) serve(ctx context.Context, ws *websocket.Conn, conn *Conn, log *zap.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	readerDone := make(chan struct{})
	defer func() {
		cancel()
		<-readerDone
	}()

	go func() {
		defer close(readerDone)
		defer cancel()
		for {
			var msg clientMessage
			if err := wsjson.Read(ctx, ws, &msg); err != nil {
				if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
					log.Debug("Realtime read failed", zap.Error(err))
				}
				return
			}
			s.handleMessage(conn, msg)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = ws.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-conn.Done():
			_ = ws.Close(websocket.StatusNormalClosure, "closed")
			return
		case event := <-conn.Events():
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, ws, event)
			cancelWrite()
			if err != nil {
				_ = ws.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

func (s *Server) handleMessage(conn *Conn, msg clientMessage) {
	switch msg.Action {
	case actionJoinJob:
		actor := policy.Actor{
			UserID:   conn.Identity.UserID,
			TenantID: conn.Identity.TenantID,
			Role:     conn.Identity.Role,
		}
		if msg.JobID == "" {
			conn.Enqueue(Event{Type: EventError, Data: gin.H{"message": "jobId is required"}})
			return
		}
		if s.access == nil || s.access(actor, msg.JobID) != nil {
			conn.Enqueue(Event{Type: EventError, Data: gin.H{"message": "cannot join job", "jobId": msg.JobID}})
			return
		}
		s.rooms.Join(JobRoom(msg.JobID), conn)
		conn.Enqueue(Event{Type: EventJoined, Data: gin.H{"room": JobRoom(msg.JobID)}})
	case actionLeaveJob:
		s.rooms.Leave(JobRoom(msg.JobID), conn)
		conn.Enqueue(Event{Type: EventLeft, Data: gin.H{"room": JobRoom(msg.JobID)}})
	default:
		conn.Enqueue(Event{Type: EventError, Data: gin.H{"message": "unknown action"}})
	}
}
