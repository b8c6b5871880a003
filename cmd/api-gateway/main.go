package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/erp-api/api/swagger"
	"github.com/noah-isme/erp-api/internal/handler"
	"github.com/noah-isme/erp-api/internal/middleware"
	"github.com/noah-isme/erp-api/internal/repository"
	"github.com/noah-isme/erp-api/internal/service"
	"github.com/noah-isme/erp-api/pkg/cache"
	"github.com/noah-isme/erp-api/pkg/config"
	"github.com/noah-isme/erp-api/pkg/database"
	"github.com/noah-isme/erp-api/pkg/jobs"
	"github.com/noah-isme/erp-api/pkg/logger"
	"github.com/noah-isme/erp-api/pkg/messaging"
	corsmiddleware "github.com/noah-isme/erp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/erp-api/pkg/middleware/requestid"
	"github.com/noah-isme/erp-api/pkg/scheduler"
	"github.com/noah-isme/erp-api/pkg/storage"
	"github.com/noah-isme/erp-api/pkg/tracing"
	"github.com/noah-isme/erp-api/pkg/validation"
)

// @title ERP Approval API
// @version 1.0.0
// @description Approval chains, reporting hierarchy and supporting master data for ERP documents.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const reminderTask = "approval-reminders"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := tracing.Setup(cfg.Tracing, cfg.Env, nil)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	publisher, err := messaging.Connect(cfg.Notifications, logr)
	if err != nil {
		logr.Warn("nats unavailable, external notification channels disabled", zap.Error(err))
		publisher = nil
	}
	defer publisher.Close() //nolint:errcheck

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to init upload storage", zap.Error(err))
	}
	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init report storage", zap.Error(err))
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	referenceRepo := repository.NewReferenceRepository(db, repository.ReferenceTables()...)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DefaultTTL, logr, redisClient != nil)
	schemas := service.NewSchemaRegistry()
	validator := validation.New(referenceRepo)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	notificationSvc := service.NewNotificationService(notificationRepo, eventPublisher(publisher), validator, schemas, cacheSvc, metricsSvc, logr)
	notificationQueue := jobs.NewQueue("notifications", notificationSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnResult: func(job jobs.Job, err error, elapsed time.Duration) {
			metricsSvc.ObserveJob("notifications", err, elapsed)
		},
	})
	notificationSvc.UseQueue(notificationQueue)

	approvalSvc := service.NewApprovalService(approvalRepo, documentRepo, validator, schemas, notificationSvc, cacheSvc, metricsSvc, userRepo, logr)
	documentSvc := service.NewDocumentService(documentRepo, validator, schemas, cacheSvc, userRepo, logr)
	userSvc := service.NewUserService(userRepo, validator, schemas, cacheSvc, logr)
	taskSvc := service.NewTaskService(taskRepo, validator, schemas, userRepo, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, validator, schemas, userRepo, logr)
	warehouseSvc := service.NewWarehouseService(warehouseRepo, validator, schemas, userRepo, logr)
	attachmentSvc := service.NewAttachmentService(
		attachmentRepo,
		documentRepo,
		uploadStore,
		storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, "attachments", cfg.Uploads.SignedURLTTL),
		userRepo,
		logr,
		service.AttachmentServiceConfig{
			MaxImageBytes:    cfg.Uploads.MaxImageBytes,
			MaxDocumentBytes: cfg.Uploads.MaxDocumentBytes,
			MaxVideoBytes:    cfg.Uploads.MaxVideoBytes,
			APIPrefix:        cfg.APIPrefix,
		},
	)
	reportSvc := service.NewReportService(
		documentRepo,
		reportStore,
		storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, "reports", cfg.Reports.SignedURLTTL),
		service.ReportServiceConfig{
			APIPrefix:       cfg.APIPrefix,
			CompanyName:     cfg.Reports.CompanyName,
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		},
		logr,
	)

	// Background work.
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	notificationQueue.Start(rootCtx)
	reportSvc.StartCleanup(rootCtx)

	cron := scheduler.New(logr, 5*time.Minute)
	if cfg.Reminders.Enabled {
		err := cron.Register(reminderTask, cfg.Reminders.Schedule, func(ctx context.Context) error {
			sent, err := approvalSvc.RemindStale(ctx, cfg.Reminders.PendingAfter, cfg.Reminders.BatchSize)
			if err == nil {
				logr.Info("approval reminders dispatched", zap.Int("count", sent))
			}
			return err
		})
		if err != nil {
			logr.Fatal("failed to schedule reminders", zap.Error(err))
		}
	}
	cron.Start()

	// HTTP.
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.ResponseMeta())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.HealthCheck{
		"database": func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.PingContext(ctx) == nil
		},
		"redis": func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return cacheRepo.Ping(ctx) == nil
		},
		"nats": publisher.Healthy,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		auth:          handler.NewAuthHandler(authSvc),
		users:         handler.NewUserHandler(userSvc),
		documents:     handler.NewDocumentHandler(documentSvc),
		approvals:     handler.NewApprovalHandler(approvalSvc),
		attachments:   handler.NewAttachmentHandler(attachmentSvc),
		departments:   handler.NewDepartmentHandler(departmentSvc),
		warehouses:    handler.NewWarehouseHandler(warehouseSvc),
		tasks:         handler.NewTaskHandler(taskSvc),
		notifications: handler.NewNotificationHandler(notificationSvc),
		reports:       handler.NewReportHandler(reportSvc),
		schemas:       handler.NewSchemaHandler(schemas),
		metrics:       metricsHandler,
		tokens:        authSvc,
		audit:         userRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown failed", zap.Error(err))
	}
	cron.Stop(shutdownCtx)
	notificationQueue.Stop()
	stopBackground()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracing shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

// eventPublisher maps a missing NATS connection to a nil interface.
func eventPublisher(p *messaging.Publisher) interface {
	Subject(tokens ...string) string
	Publish(subject string, payload interface{}) error
} {
	if p == nil {
		return nil
	}
	return p
}
