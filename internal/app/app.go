package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"testcracker/internal/config"
	"testcracker/internal/controller"
	"testcracker/internal/middleware"
	"testcracker/internal/repository"
	"testcracker/internal/service"
	"testcracker/pkg/cache"
	"testcracker/pkg/configwatcher"
	"testcracker/pkg/database"
	"testcracker/pkg/logger"
	"testcracker/pkg/monitoring"
	"testcracker/pkg/security"
	"testcracker/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 5 * time.Second
	reloadDebounce  = 500 * time.Millisecond
	serviceName     = "testcracker-api"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	tracer          *sdktrace.TracerProvider
	limiter         *security.Limiter
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user    *repository.UserRepository
	exam    *repository.ExamRepository
	attempt *repository.AttemptRepository
}

type services struct {
	auth    *service.AuthService
	storage *service.StorageService
	user    *service.UserService
	exam    *service.ExamService
	attempt *service.AttemptService
}

type controllers struct {
	health  *controller.HealthController
	auth    *controller.AuthController
	user    *controller.UserController
	exam    *controller.ExamController
	attempt *controller.AttemptController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("Configuration reloaded", zap.String("level", logger.Level().String()))
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		exam:    repository.NewExamRepository(db),
		attempt: repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, examCache cache.ExamCache) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.exam = service.NewExamService(repos.exam, repos.attempt, examCache, s.storage)
	s.attempt = service.NewAttemptService(repos.attempt, repos.exam)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		health:  controller.NewHealthController(db),
		auth:    controller.NewAuthController(s.auth),
		user:    controller.NewUserController(s.user),
		exam:    controller.NewExamController(s.exam),
		attempt: controller.NewAttemptController(s.attempt),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(middleware.RequestLogger())
}

// examCache connects to Redis when enabled. The API keeps serving from the
// database when Redis is unreachable.
func (a *App) examCache(ctx context.Context) cache.ExamCache {
	if !a.Config.Redis.Enabled {
		return cache.Nop{}
	}
	rdb, err := database.InitRedis(ctx, &a.Config.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, exam cache disabled", zap.Error(err))
		return cache.Nop{}
	}
	a.Redis = rdb
	return cache.NewRedisExamCache(rdb, a.Config.Redis.TTL)
}

// NewApp connects to the database and builds the router. When cfg.MigrateOnly
// is set it returns right after migrating, with no router.
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config:  cfg,
		DB:      db,
		limiter: security.NewLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.ForceMigrate || cfg.Server.Mode == gin.DebugMode {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		return app
	}

	monitoring.Init()
	if sqlDB, err := db.DB(); err == nil {
		if err := monitoring.RegisterDB(sqlDB, "testcracker"); err != nil {
			logger.Log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(serviceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	repos := app.initRepositories(db)
	svcs := app.initServices(repos, cfg, app.examCache(ctx))
	ctrls := app.initControllers(svcs, db)

	app.Router = app.buildRouter(ctrls)
	app.RegisterConfigCallback(logger.SetLevel)

	return app
}

func (a *App) buildRouter(c *controllers) *gin.Engine {
	router := gin.New()
	a.setupMiddlewares(router, a.Config)
	a.registerRoutes(router, c, a.Config)

	if a.Config.Storage.Type == "" || a.Config.Storage.Type == "local" {
		router.Static("/uploads", a.Config.Storage.LocalPath)
	}
	return router
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests for up
// to five seconds and releases the database, Redis and tracer.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.limiter.Run(ctx)

	if a.Config.ConfigFile != "" {
		go func() {
			if err := configwatcher.Watch(ctx, a.Config.ConfigFile, reloadDebounce, a.applyConfig); err != nil {
				logger.Log.Warn("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(shutdownCtx)
	logger.Log.Info("Server exiting")
}

// Close releases everything NewApp opened.
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := tracing.Shutdown(ctx, a.tracer); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			logger.Log.Error("Failed to close database", zap.Error(err))
		}
	}
	_ = logger.Log.Sync()
}
