package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/freelancedesk/backend/internal/application/billing"
	dashboardapp "github.com/freelancedesk/backend/internal/application/dashboard"
	identityapp "github.com/freelancedesk/backend/internal/application/identity"
	projectapp "github.com/freelancedesk/backend/internal/application/project"
	todoapp "github.com/freelancedesk/backend/internal/application/todo"
	"github.com/freelancedesk/backend/internal/infrastructure/auth"
	"github.com/freelancedesk/backend/internal/infrastructure/config"
	"github.com/freelancedesk/backend/internal/infrastructure/logger"
	"github.com/freelancedesk/backend/internal/infrastructure/persistence"
	"github.com/freelancedesk/backend/internal/infrastructure/printing"
	"github.com/freelancedesk/backend/internal/infrastructure/storage"
	"github.com/freelancedesk/backend/internal/infrastructure/telemetry"
	"github.com/freelancedesk/backend/internal/interfaces/http/handler"
	"github.com/freelancedesk/backend/internal/interfaces/http/middleware"
	"github.com/freelancedesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/freelancedesk/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			FreelanceDesk API
//	@version		1.0
//	@description	Project tracking and invoicing backend for freelancers

//	@contact.name	API Support
//	@contact.url	https://github.com/freelancedesk/backend

//	@license.name	MIT

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting FreelanceDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing (no-op unless enabled)
	var tracerProvider *telemetry.TracerProvider
	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
		if err != nil {
			log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		tracerProvider = tp
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(ctx); err != nil {
				log.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:      gormLog,
		TraceDB:     cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Token blacklist backed by Redis; in-memory fallback keeps logout
	// working on a single instance when Redis is absent
	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
		defer func() {
			if err := redisBlacklist.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
		log.Info("Redis token blacklist connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// PDF renderer
	renderer, err := newRenderer(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	log.Info("PDF renderer ready", zap.String("backend", cfg.PDF.Renderer))

	// Export archive mirror (optional)
	var archiveStore storage.ArchiveStore
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ArchiveStore(&cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize archive storage", zap.Error(err))
		}
		archiveStore = s3Store
		log.Info("Archive storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	todoRepo := persistence.NewGormTodoRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	projectService := projectapp.NewProjectService(projectRepo)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, projectRepo)
	exportService := billingapp.NewExportService(invoiceRepo, renderer, archiveStore)
	todoService := todoapp.NewTodoService(todoRepo, projectRepo)
	dashboardService := dashboardapp.NewDashboardService(invoiceRepo, projectRepo, todoRepo)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, recovery, logging, security headers,
	// CORS, body limit, tracing, then JWT auth
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Liveness endpoint outside API versioning
	engine.GET("/health", healthHandler(db))

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Mount(
		handler.NewSystemHandler(),
		handler.NewAuthHandler(authService),
		handler.NewProjectHandler(projectService),
		handler.NewInvoiceHandler(invoiceService, exportService),
		handler.NewTodoHandler(todoService),
		handler.NewDashboardHandler(dashboardService),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newRenderer builds the configured PDF rendering backend
func newRenderer(cfg *config.Config, log *zap.Logger) (printing.PDFRenderer, error) {
	switch cfg.PDF.Renderer {
	case "wkhtmltopdf":
		return printing.NewWkhtmltopdfRenderer(&printing.WkhtmltopdfConfig{
			BinaryPath:     cfg.PDF.WkhtmltopdfPath,
			DefaultTimeout: cfg.PDF.RenderTimeout,
			Logger:         log,
		})
	default:
		return printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.PDF.RenderTimeout,
			RemoteURL:      cfg.PDF.ChromeRemoteURL,
			NoSandbox:      cfg.PDF.NoSandbox,
			Logger:         log,
		})
	}
}

// healthHandler reports liveness including database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
