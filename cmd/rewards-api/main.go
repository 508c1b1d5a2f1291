package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/hr-rewards-api/api/swagger"
	"github.com/noah-isme/hr-rewards-api/internal/handler"
	"github.com/noah-isme/hr-rewards-api/internal/middleware"
	"github.com/noah-isme/hr-rewards-api/internal/models"
	"github.com/noah-isme/hr-rewards-api/internal/repository"
	"github.com/noah-isme/hr-rewards-api/internal/service"
	"github.com/noah-isme/hr-rewards-api/pkg/cache"
	"github.com/noah-isme/hr-rewards-api/pkg/config"
	"github.com/noah-isme/hr-rewards-api/pkg/database"
	"github.com/noah-isme/hr-rewards-api/pkg/jobs"
	"github.com/noah-isme/hr-rewards-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hr-rewards-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hr-rewards-api/pkg/middleware/requestid"
	"github.com/noah-isme/hr-rewards-api/pkg/storage"
)

// @title HR Rewards API
// @version 1.0.0
// @description Reward lifecycle engine: catalog, eligibility, application workflow and reporting
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	// Repositories.
	rewardTypeRepo := repository.NewRewardTypeRepository(db)
	rewardRecordRepo := repository.NewRewardRecordRepository(db)
	evaluationLogRepo := repository.NewEvaluationLogRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	kudosRepo := repository.NewKudosRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, nil, logr)
	eligibilitySvc := service.NewEligibilityService(rewardTypeRepo, employeeRepo, attendanceRepo, performanceRepo, evaluationLogRepo, metricsSvc, logr)
	calculationSvc := service.NewCalculationService(employeeRepo, logr)
	rewardSvc := service.NewRewardService(rewardRecordRepo, rewardTypeRepo, settingsRepo, eligibilitySvc, calculationSvc, metricsSvc, nil, logr)
	rewardTypeSvc := service.NewRewardTypeService(rewardTypeRepo, rewardRecordRepo, nil, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, logr)
	streakSvc := service.NewStreakService(attendanceRepo, rewardTypeRepo, rewardRecordRepo, employeeRepo, rewardSvc, metricsSvc, cfg.Streak, logr)
	reportingSvc := service.NewReportingService(rewardRecordRepo, employeeRepo, kudosRepo, cacheSvc, files, signer, logr)
	kudosSvc := service.NewKudosService(kudosRepo, employeeRepo, nil, logr)

	if cfg.Rewards.SeedDefaults && cfg.Rewards.SeedTenantID != "" {
		// Opportunistic bootstrap on first run against an empty catalog.
		if _, err := rewardTypeSvc.SeedDefaults(context.Background(), cfg.Rewards.SeedTenantID); err != nil {
			logr.Sugar().Warnw("failed to seed default reward types", "error", err)
		}
	}

	streakQueue := jobs.NewQueue("streak", func(ctx context.Context, job jobs.Job) error {
		tenantID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		_, err := streakSvc.ProcessAllEmployees(ctx, tenantID)
		return err
	}, jobs.QueueConfig{
		Workers: cfg.Streak.WorkerConcurrency,
		Logger:  logr,
	})
	streakQueue.Start(context.Background())
	defer streakQueue.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	rewardTypeHandler := handler.NewRewardTypeHandler(rewardTypeSvc)
	rewardHandler := handler.NewRewardHandler(rewardSvc)
	reportingHandler := handler.NewReportingHandler(reportingSvc)
	streakHandler := handler.NewStreakHandler(streakSvc, streakQueue, logr)
	kudosHandler := handler.NewKudosHandler(kudosSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/reports/download", reportingHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		manage := authed.Group("")
		manage.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
		{
			manage.GET("/reward-types", rewardTypeHandler.List)
			manage.GET("/reward-types/:id", rewardTypeHandler.Get)
			manage.POST("/reward-types", rewardTypeHandler.Create)
			manage.PUT("/reward-types/:id", rewardTypeHandler.Update)
			manage.PATCH("/reward-types/:id/toggle", rewardTypeHandler.Toggle)
			manage.DELETE("/reward-types/:id", rewardTypeHandler.Delete)
			manage.POST("/reward-types/seed-defaults", rewardTypeHandler.SeedDefaults)

			manage.GET("/rewards", rewardHandler.List)
			manage.GET("/rewards/:id", rewardHandler.Get)
			manage.POST("/rewards", rewardHandler.CreateManual)
			manage.POST("/rewards/apply", rewardHandler.Apply)
			manage.POST("/rewards/apply-bulk", rewardHandler.ApplyBulk)
			manage.POST("/rewards/:id/approve", rewardHandler.Approve)
			manage.POST("/rewards/:id/reject", rewardHandler.Reject)
			manage.POST("/rewards/:id/void", rewardHandler.Void)
			manage.PUT("/rewards/:id", rewardHandler.Update)
			manage.DELETE("/rewards/:id", rewardHandler.Delete)

			manage.GET("/reports/monthly", reportingHandler.Monthly)
			manage.GET("/reports/monthly/export", reportingHandler.ExportMonthly)
			manage.GET("/reports/cost-analysis", reportingHandler.CostAnalysis)
			manage.GET("/reports/employees/:id/history", reportingHandler.EmployeeHistory)

			manage.GET("/settings/rewards", settingsHandler.Get)
			manage.PUT("/settings/rewards", settingsHandler.Update)

			manage.POST("/streaks/process", streakHandler.Process)
			manage.POST("/streaks/employees/:id/check", streakHandler.Check)
		}

		authed.POST("/kudos", kudosHandler.Send)
		authed.GET("/kudos", kudosHandler.List)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	srv := &http.Server{Addr: addr, Handler: r}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
