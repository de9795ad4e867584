package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/policy"
)

func setupWSServer(t *testing.T) (*Hub, *auth.TokenManager, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(nil)
	tokens := auth.NewTokenManager("test-secret", time.Minute, time.Hour)
	access := func(actor policy.Actor, jobID string) error {
		if jobID == "job-1" {
			return nil
		}
		return policy.ErrForbidden
	}

	router := gin.New()
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	mux := http.NewServeMux()
	mux.Handle("/ws", NewServer(hub, tokens, access, nil))
	mux.Handle("/", router)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return hub, tokens, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close(websocket.StatusNormalClosure, "") })
	return ws
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	_, _, url := setupWSServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketMuxStillServesRouter(t *testing.T) {
	_, _, url := setupWSServer(t)

	resp, err := http.Get("http" + strings.TrimPrefix(strings.TrimSuffix(url, "/ws"), "ws") + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketRejectsCustomerRole(t *testing.T) {
	_, tokens, url := setupWSServer(t)
	token, err := tokens.Sign(auth.Identity{UserID: "c1", TenantID: "t1", Role: models.RoleCustomer}, auth.AccessToken)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, url+"?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketTenantAndJobRooms(t *testing.T) {
	hub, tokens, url := setupWSServer(t)
	token, err := tokens.Sign(auth.Identity{UserID: "w1", TenantID: "t1", Role: models.RoleWorker}, auth.AccessToken)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws := dial(t, ctx, url+"?token="+token)

	require.Eventually(t, func() bool { return hub.Members(TenantRoom("t1")) == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(TenantRoom("t1"), Event{Type: EventJobCreated, Data: map[string]string{"id": "job-1"}})

	var got map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, ws, &got))
	assert.Equal(t, EventJobCreated, got["event"])

	// Denied job
	require.NoError(t, wsjson.Write(ctx, ws, clientMessage{Action: actionJoinJob, JobID: "job-2"}))
	require.NoError(t, wsjson.Read(ctx, ws, &got))
	assert.Equal(t, EventError, got["event"])
	assert.Equal(t, 0, hub.Members(JobRoom("job-2")))

	require.NoError(t, wsjson.Write(ctx, ws, clientMessage{Action: actionJoinJob, JobID: "job-1"}))
	require.NoError(t, wsjson.Read(ctx, ws, &got))
	assert.Equal(t, EventJoined, got["event"])

	hub.Publish(JobRoom("job-1"), Event{Type: EventTaskUpdated})
	require.NoError(t, wsjson.Read(ctx, ws, &got))
	assert.Equal(t, EventTaskUpdated, got["event"])

	require.NoError(t, wsjson.Write(ctx, ws, clientMessage{Action: actionLeaveJob, JobID: "job-1"}))
	require.NoError(t, wsjson.Read(ctx, ws, &got))
	assert.Equal(t, EventLeft, got["event"])
	assert.Equal(t, 0, hub.Members(JobRoom("job-1")))
}

func TestWebSocketWorkerLeavesJobRoomWhenReassigned(t *testing.T) {
	hub, tokens, url := setupWSServer(t)
	token, err := tokens.Sign(auth.Identity{UserID: "w1", TenantID: "t1", Role: models.RoleWorker}, auth.AccessToken)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws := dial(t, ctx, url+"?token="+token)

	var got map[string]interface{}
	require.NoError(t, wsjson.Write(ctx, ws, clientMessage{Action: actionJoinJob, JobID: "job-1"}))
	require.NoError(t, wsjson.Read(ctx, ws, &got))
	require.Equal(t, EventJoined, got["event"])

	other := "w2"
	job := &models.JobDetails{Job: models.Job{ID: "job-1", TenantID: "t1", AssignedWorkerID: &other}}
	NewBroadcaster(hub).JobUpdated(job)

	// Tenant room copy, job room copy, then the eviction notice
	for _, want := range []string{EventJobUpdated, EventJobUpdated, EventLeft} {
		require.NoError(t, wsjson.Read(ctx, ws, &got))
		assert.Equal(t, want, got["event"])
	}
	assert.Equal(t, 0, hub.Members(JobRoom("job-1")))
	assert.Equal(t, 1, hub.Members(TenantRoom("t1")))
}

func TestWebSocketSessionRemovedOnClose(t *testing.T) {
	hub, tokens, url := setupWSServer(t)
	token, err := tokens.Sign(auth.Identity{UserID: "a1", TenantID: "t1", Role: models.RoleAdmin}, auth.AccessToken)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, url+"?token="+token, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Members(TenantRoom("t1")) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, ws.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool { return hub.Members(TenantRoom("t1")) == 0 }, 2*time.Second, 10*time.Millisecond)
}
