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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lessonplan-api/api/swagger"
	"github.com/noah-isme/lessonplan-api/internal/handler"
	internalmiddleware "github.com/noah-isme/lessonplan-api/internal/middleware"
	"github.com/noah-isme/lessonplan-api/internal/repository"
	"github.com/noah-isme/lessonplan-api/internal/service"
	"github.com/noah-isme/lessonplan-api/migrations"
	"github.com/noah-isme/lessonplan-api/pkg/ai"
	"github.com/noah-isme/lessonplan-api/pkg/cache"
	"github.com/noah-isme/lessonplan-api/pkg/config"
	"github.com/noah-isme/lessonplan-api/pkg/database"
	"github.com/noah-isme/lessonplan-api/pkg/jobs"
	"github.com/noah-isme/lessonplan-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lessonplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lessonplan-api/pkg/middleware/requestid"
	"github.com/noah-isme/lessonplan-api/pkg/ratelimit"
	"github.com/noah-isme/lessonplan-api/pkg/storage"
	"github.com/noah-isme/lessonplan-api/pkg/tracing"
)

// @title Lesson Plan API
// @version 0.1.0
// @description Lesson plans, student profiles and dashboards for teachers and tutors
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Env, logr)
	if err != nil {
		logr.Warn("tracing disabled", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := migrateUp(cfg.Database); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
	}

	var redisClient *redis.Client
	if client, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching and rate limiting disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	location, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		logr.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
		location = time.UTC
	}
	listCfg := service.ListConfig{Location: location, DefaultPageSize: cfg.App.DefaultPageSize}

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	lessonRepo := repository.NewLessonPlanRepository(db)
	tutorPlanRepo := repository.NewTutorLessonPlanRepository(db)
	teacherProfiles := repository.NewTeacherProfileRepository(db)
	tutorProfiles := repository.NewTutorProfileRepository(db)
	classRepo := repository.NewClassRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authSvc := service.NewAuthService(logr, service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience})
	lessonSvc := service.NewLessonPlanService(lessonRepo, cacheSvc, validate, logr, listCfg)
	tutorSvc := service.NewTutorLessonPlanService(tutorPlanRepo, tutorProfiles, cacheSvc, validate, logr, listCfg)
	profileSvc := service.NewStudentProfileService(teacherProfiles, tutorProfiles, tutorPlanRepo, cacheSvc, validate, logr, listCfg)
	classSvc := service.NewClassService(classRepo, teacherProfiles, cacheSvc, validate, logr, listCfg)
	prefSvc := service.NewPreferenceService(prefRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(lessonSvc, tutorSvc, tutorProfiles, prefSvc, logr)
	generationSvc := service.NewGenerationService(ai.New(cfg.AI), tutorProfiles, metrics, validate, logr)
	printSvc := service.NewPrintService(lessonSvc, tutorSvc, nil, nil, logr)

	routes := handler.Routes{
		Auth:             handler.NewAuthHandler(authSvc),
		Users:            handler.NewUserHandler(prefSvc),
		LessonPlans:      handler.NewLessonPlanHandler(lessonSvc, printSvc),
		TutorLessonPlans: handler.NewTutorLessonPlanHandler(tutorSvc, printSvc),
		Students:         handler.NewStudentHandler(profileSvc),
		Classes:          handler.NewClassHandler(classSvc),
		Dashboard:        handler.NewDashboardHandler(dashboardSvc),
		Generation:       handler.NewGenerationHandler(generationSvc),
		Metrics:          handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient)),
		Tokens:           authSvc,
		Audit:            auditRepo,
	}

	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportRepo := repository.NewExportRepository(db)
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		generator := service.NewExportGenerator(lessonRepo, tutorPlanRepo, store, signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL}, logr, nil, nil)
		worker := service.NewExportWorker(exportRepo, generator, metrics, logr)
		exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Exports.WorkerConcurrency,
			BufferSize:  64,
			MaxRetries:  cfg.Exports.WorkerRetries,
			RetryDelay:  5 * time.Second,
			Logger:      logr,
			OnExhausted: worker.Fail,
		})
		exportQueue.Start(ctx)

		exportSvc := service.NewExportService(exportRepo, exportQueue, generator, validate, logr, service.ExportServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		if n := exportSvc.RecoverPendingJobs(ctx); n > 0 {
			logr.Info("requeued pending exports", zap.Int("count", n))
		}
		exportSvc.StartCleanup(ctx)
		routes.Exports = handler.NewExportHandler(exportSvc, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metrics))
	if cfg.RateLimit.Enabled && redisClient != nil {
		r.Use(internalmiddleware.RateLimit(rateLimitOptions(cfg.RateLimit, redisClient, authSvc, metrics, logr)))
	}

	routes.RegisterProbes(r)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	routes.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracing shutdown", zap.Error(err))
	}
}

// migrateUp runs on its own connection because closing the migrator closes the pool it was given.
func migrateUp(cfg config.DatabaseConfig) error {
	conn, err := database.NewPostgres(cfg)
	if err != nil {
		return err
	}
	migrator, err := database.NewMigrator(conn.DB, migrations.Files)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer migrator.Close() //nolint:errcheck
	return migrator.Up()
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}

func rateLimitOptions(cfg config.RateLimitConfig, client *redis.Client, auth *service.AuthService, metrics *service.MetricsService, logr *zap.Logger) internalmiddleware.RateLimitOptions {
	return internalmiddleware.RateLimitOptions{
		Limiter: ratelimit.New(client, "ratelimit"),
		Rules: internalmiddleware.RateLimitRules{
			Authenticated: ratelimit.Rule{Name: "authenticated", Limit: cfg.AuthenticatedLimit, Window: cfg.Window},
			Anonymous:     ratelimit.Rule{Name: "anonymous", Limit: cfg.AnonymousLimit, Window: cfg.Window},
			AuthEndpoint:  ratelimit.Rule{Name: "auth_endpoint", Limit: cfg.AuthEndpointLimit, Window: cfg.Window},
		},
		Tokens:    auth,
		Recorder:  metrics,
		Logger:    logr,
		SkipPaths: []string{"/health", "/ready", "/metrics"},
	}
}
