package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/joblink/chat-backend/internal/config"
	"github.com/joblink/chat-backend/internal/event"
	"github.com/joblink/chat-backend/internal/handler"
	"github.com/joblink/chat-backend/internal/middleware"
	"github.com/joblink/chat-backend/internal/migration"
	"github.com/joblink/chat-backend/internal/repository"
	"github.com/joblink/chat-backend/internal/routes"
	"github.com/joblink/chat-backend/internal/service"
	pkgjwt "github.com/joblink/chat-backend/pkg/jwt"
	pkglogger "github.com/joblink/chat-backend/pkg/logger"
	pkgredis "github.com/joblink/chat-backend/pkg/redis"
	pkgstorage "github.com/joblink/chat-backend/pkg/storage"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := migration.SeedCatalog(db); err != nil {
		log.Fatalf("Catalog seed failed: %v", err)
	}

	// Redis is optional: without it presence falls back to MySQL only.
	var presence service.Presence
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		pkglogger.Warn("Redis unavailable, presence cache disabled: %v", err)
	} else {
		presence = pkgredis.NewPresenceCache(redisClient, cfg.Sweeper.PresenceCacheTTL)
	}

	var blobStore pkgstorage.BlobStore
	if cfg.Storage.Bucket != "" {
		s3Client, err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
			Timeout:         cfg.Storage.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to init storage: %v", err)
		}
		blobStore = s3Client
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tokenRepo := repository.NewDeviceTokenRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	logRepo := repository.NewNotificationLogRepository(db)

	// Event bus and services
	bus := event.NewBus(*pkglogger.GetLogger())

	identitySvc := service.NewIdentityService(db, userRepo, sessionRepo, tokenRepo, presence)
	conversationSvc := service.NewConversationService(db, conversationRepo, participantRepo, userRepo)
	messageSvc := service.NewMessageService(db, messageRepo, conversationRepo, participantRepo, bus)
	catalogSvc := service.NewCatalogService(catalogRepo)
	dispatchSvc := service.NewDispatchService(
		catalogSvc, logRepo,
		[]service.Transport{service.NewInAppTransport()},
		cfg.Dispatch.TransportTimeout,
	)

	hooks := service.NewDispatchHooks(participantRepo, messageRepo, userRepo, dispatchSvc, []string{"mobile", "web"})
	hooks.Subscribe(bus)

	// Reconciliation sweeper
	sweeper := service.NewSweeper(service.SweeperConfig{
		Interval:        cfg.Sweeper.Interval,
		SessionStaleAge: cfg.Sweeper.SessionStaleAge,
		QueuedRetryAge:  cfg.Sweeper.QueuedRetryAge,
	}, sessionRepo, identitySvc, logRepo, dispatchSvc)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweepCtx)

	// HTTP surface
	if env != "local" && env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(cors.Default())

	jwtManager := pkgjwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	handlers := routes.Handlers{
		Conversations: handler.NewConversationHandler(conversationSvc),
		Messages:      handler.NewMessageHandler(messageSvc),
		Notifications: handler.NewNotificationHandler(catalogSvc, logRepo),
		Identity:      handler.NewIdentityHandler(identitySvc),
	}
	if blobStore != nil {
		handlers.Attachments = handler.NewAttachmentHandler(blobStore)
	}
	if cfg.Assistant.UserID != "" {
		assistantUserID, err := uuid.Parse(cfg.Assistant.UserID)
		if err != nil {
			log.Fatalf("Invalid assistant user id: %v", err)
		}
		// The responder is an external integration point; replies fail
		// with a validation error until one is plugged in.
		assistantSvc := service.NewAssistantService(nil, messageSvc, cfg.Assistant.Timeout)
		handlers.Assistant = handler.NewAssistantHandler(assistantSvc, assistantUserID)
	}
	routes.Register(r, jwtManager, identitySvc, handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		pkglogger.Info("listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	pkglogger.Info("shutting down")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Error("forced shutdown: %v", err)
	}
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
