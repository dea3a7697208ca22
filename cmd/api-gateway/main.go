package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/observability"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Timetable generation and schedule management for SMA terms
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, cfg.Telemetry, cfg.Env, logr)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.ShutdownWait)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, using in-process locks and no cache", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	termRepo := repository.NewTermRepository(db)
	classRepo := repository.NewClassRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	lockRepo := repository.NewTermLockRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	catalogLoader := service.NewCatalogLoader(service.CatalogRepositories{
		Terms:              termRepo,
		Classes:            classRepo,
		Subjects:           repository.NewSubjectRepository(db),
		Curriculum:         curriculumRepo,
		TeacherAssignments: repository.NewTeacherAssignmentRepository(db),
		TimeSlots:          repository.NewTimeSlotRepository(db),
		Constraints:        repository.NewScheduleConstraintRepository(db),
	}, logr)
	curriculumSvc := service.NewCurriculumService(termRepo, classRepo, curriculumRepo, db, logr, service.WithTermLocker(lockRepo, cfg.Scheduler.LockTTL))
	generatorSvc := service.NewScheduleGeneratorService(catalogLoader, curriculumSvc, scheduleRepo, lockRepo, cacheSvc, db, metricsSvc, validate, logr, service.ScheduleGeneratorConfig{
		CoreSubjects:      cfg.Scheduler.CoreSubjects,
		PracticalSubjects: cfg.Scheduler.PracticalSubjects,
		MorningCutoff:     cfg.Scheduler.MorningCutoff,
		LockTTL:           cfg.Scheduler.LockTTL,
		DefaultWeek:       cfg.Scheduler.DefaultWeek,
	})
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheSvc, metricsSvc, validate, logr)

	generatorHandler := handler.NewScheduleGeneratorHandler(generatorSvc, curriculumSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    cacheRepo,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokenSvc), internalmiddleware.WithResponseMeta())
	admin := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	if cfg.Scheduler.Enabled {
		terms := api.Group("/terms/:termId")
		terms.POST("/schedules/generate", admin, generatorHandler.Generate)
		terms.DELETE("/schedules", admin, generatorHandler.DeleteByTerm)
		terms.GET("/schedules/coverage", generatorHandler.Coverage)
		terms.POST("/curriculum/normalize", admin, generatorHandler.NormalizeCurriculum)
	}

	api.GET("/schedules", scheduleHandler.List)
	api.POST("/schedules/conflicts", scheduleHandler.CheckConflicts)
	api.POST("/schedules", admin, scheduleHandler.Create)
	api.DELETE("/schedules/:id", admin, scheduleHandler.Delete)
	api.GET("/terms/:termId/classes/:classId/timetable", scheduleHandler.ClassTimetable)
	api.GET("/terms/:termId/classes/:classId/timetable/export", scheduleHandler.ExportClassTimetable)
	api.GET("/terms/:termId/teachers/:teacherId/timetable", scheduleHandler.TeacherTimetable)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logr.Error("server failed", zap.Error(err))
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
