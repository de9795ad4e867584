package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/constants"
	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/realtime"
	"github.com/yukikurage/field-service-api/internal/services"
	"github.com/yukikurage/field-service-api/internal/storage"
)

const testPassword = "supersecret"

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	tokens *auth.TokenManager
	hub    *realtime.Hub
	svc    *services.Container

	tenant      *models.Tenant
	admin       *models.User
	worker      *models.User
	otherWorker *models.User
	customer    *models.Customer
	statusNew   *models.JobStatus
	statusDone  *models.JobStatus
}

type envelope struct {
	Success    bool                   `json:"success"`
	Data       json.RawMessage        `json:"data"`
	Pagination map[string]interface{} `json:"pagination"`
	Message    string                 `json:"message"`
	Error      string                 `json:"error"`
	Code       string                 `json:"code"`
	Details    []map[string]string    `json:"details"`
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.MigrateDB(db))
	database.SetDB(db)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", 15*time.Minute, time.Hour)
	svc := services.NewContainer(db, tokens, store)
	hub := realtime.NewHub(nil)

	router := gin.New()
	router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(router.Group("/api"), db, svc, tokens, realtime.NewBroadcaster(hub))

	env := &testEnv{t: t, db: db, router: router, tokens: tokens, hub: hub, svc: svc}
	env.seed()
	return env
}

func (e *testEnv) seed() {
	e.tenant = e.createTenant("Acme Field Ops")
	e.admin = e.createUser(e.tenant.ID, "admin@acme.test", models.RoleAdmin)
	e.worker = e.createUser(e.tenant.ID, "worker@acme.test", models.RoleWorker)
	e.otherWorker = e.createUser(e.tenant.ID, "other@acme.test", models.RoleWorker)

	e.customer = &models.Customer{TenantID: e.tenant.ID, Name: "Acme Corporation"}
	require.NoError(e.t, e.db.Create(e.customer).Error)

	e.statusNew = &models.JobStatus{TenantID: e.tenant.ID, Name: "New", Color: "#6366f1", OrderIndex: 0}
	e.statusDone = &models.JobStatus{TenantID: e.tenant.ID, Name: "Completed", Color: "#22c55e", OrderIndex: 1}
	require.NoError(e.t, e.db.Create(e.statusNew).Error)
	require.NoError(e.t, e.db.Create(e.statusDone).Error)
}

func (e *testEnv) createTenant(name string) *models.Tenant {
	tenant := &models.Tenant{Name: name}
	require.NoError(e.t, e.db.Create(tenant).Error)
	return tenant
}

func (e *testEnv) createUser(tenantID, email string, role models.Role) *models.User {
	hash, err := auth.HashPassword(testPassword)
	require.NoError(e.t, err)
	user := &models.User{TenantID: tenantID, Email: email, PasswordHash: hash, Name: email, Role: role}
	require.NoError(e.t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createJob(title string, worker *models.User) *models.Job {
	job := &models.Job{
		TenantID:            e.tenant.ID,
		CustomerID:          e.customer.ID,
		StatusID:            e.statusNew.ID,
		Title:               title,
		CustomerAccessToken: title + "-token",
	}
	if worker != nil {
		job.AssignedWorkerID = &worker.ID
	}
	require.NoError(e.t, e.db.Create(job).Error)
	return job
}

func (e *testEnv) tokenFor(user *models.User) string {
	token, err := e.tokens.Sign(auth.Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
		Email:    user.Email,
	}, auth.AccessToken)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) do(method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.tokenFor(user))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func joinRoom(e *testEnv, room string) *realtime.Conn {
	conn := realtime.NewConn(auth.Identity{TenantID: e.tenant.ID}, 16)
	e.hub.Join(room, conn)
	return conn
}

func nextEvent(t *testing.T, conn *realtime.Conn) realtime.Event {
	t.Helper()
	select {
	case event := <-conn.Events():
		return event
	default:
		t.Fatal("expected a realtime event")
		return realtime.Event{}
	}
}
