package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/config"
	"github.com/yukikurage/field-service-api/internal/constants"
	"github.com/yukikurage/field-service-api/internal/database"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/handlers"
	"github.com/yukikurage/field-service-api/internal/logger"
	"github.com/yukikurage/field-service-api/internal/metrics"
	"github.com/yukikurage/field-service-api/internal/middleware"
	"github.com/yukikurage/field-service-api/internal/realtime"
	"github.com/yukikurage/field-service-api/internal/services"
	"github.com/yukikurage/field-service-api/internal/storage"
)

const serviceName = "field-service-api"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.AppEnv,
		ServiceName: serviceName,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zlog := logger.GetLogger()
	defer zlog.Sync()

	apierrors.SetProduction(cfg.IsProduction())
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}
	db := database.GetDB()

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		zlog.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	svc := services.NewContainer(db, tokens, store)
	m := metrics.New(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Realtime fan-out is local unless Redis is configured
	hub := realtime.NewHub(m)
	var rooms realtime.Rooms = hub
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()

		relay := realtime.NewRedisRelay(hub, client, realtime.DefaultRelayChannel)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zlog.Error("Realtime relay stopped", zap.Error(err))
			}
		}()
		rooms = relay
	}
	broadcaster := realtime.NewBroadcaster(rooms)
	wsServer := realtime.NewServer(rooms, tokens, svc.Jobs.CanView, cfg.WSAllowedOrigins)

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		zlog.Fatal("Failed to create session store", zap.Error(err))
	}
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * constants.SessionMaxAgeHours,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		logger.Middleware(),
		m.Middleware(),
		middleware.CORS(cfg.CORSOrigins),
		gin.Recovery(),
		sessions.Sessions(constants.SessionCookieName, sessionStore),
	)

	handlers.RegisterRoutes(r.Group("/api"), db, svc, tokens, broadcaster)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// /ws is served outside gin: its writer cannot be hijacked once the
	// 101 header is written.
	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)
	mux.Handle("/", r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("Server starting", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
}

// newSessionStore keeps refresh-token sessions in Redis when it is
// configured and in signed cookies otherwise.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.RedisAddr == "" {
		return cookie.NewStore([]byte(cfg.SessionSecret)), nil
	}
	return redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		cfg.RedisAddr,
		"", // username (empty for default user)
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret),
	)
}
