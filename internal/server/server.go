// Package server contains the HTTP and WebSocket handlers of the Kaizen board API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kaizen/internal/bootstrap"
	"kaizen/internal/config"
	"kaizen/internal/featureflags"
	"kaizen/internal/middleware"
	"kaizen/internal/models"
	"kaizen/internal/notifications"
	"kaizen/internal/repository"
	"kaizen/internal/service"
	"kaizen/internal/survey"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService         *service.AuthService
	postService         *service.PostService
	commentService      *service.CommentService
	surveyService       *service.SurveyService
	imageService        *service.ImageService
	notificationService *service.NotificationService
	userService         *service.UserService
}

// NewServer connects to the database and Redis and builds a Server on top.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		SeedCategories: cfg.SeedDefaultCategories,
	})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables caching and realtime delivery.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	rate, err := cfg.HourlyRate()
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("kaizen-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	var publisher service.EventPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		publisher = s.notifier
	}

	s.notificationService = service.NewNotificationService(
		repository.NewNotificationRepository(db), publisher, s.featureFlags)
	s.authService = service.NewAuthService(
		userRepo,
		repository.NewTokenRepository(db),
		service.NewTokenIssuer(cfg),
		cfg.JWTBlacklistAfterRotation,
	)
	s.postService = service.NewPostService(postRepo, repository.NewCategoryRepository(db), s.notificationService)
	s.commentService = service.NewCommentService(repository.NewCommentRepository(db), postRepo, s.notificationService)
	s.surveyService = service.NewSurveyService(repository.NewSurveyRepository(db), postRepo, survey.NewCalculator(rate))
	s.imageService = service.NewImageService(repository.NewImageRepository(db), postRepo, s.featureFlags, cfg)
	s.userService = service.NewUserService(userRepo)

	return s, nil
}

// AuthService exposes the token service so the scheduler can flush the blacklist.
func (s *Server) AuthService() *service.AuthService {
	return s.authService
}

// App returns the Fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app == nil {
		s.app = fiber.New(fiber.Config{
			AppName:      "Kaizen API",
			BodyLimit:    s.bodyLimit(),
			ErrorHandler: errorHandler,
		})
		s.SetupMiddleware(s.app)
		s.SetupRoutes(s.app)
	}
	return s.app
}

func (s *Server) bodyLimit() int {
	mb := s.config.MaxUploadMB
	if mb <= 0 {
		mb = service.DefaultImageMaxUploadSizeMB
	}
	// Multipart framing needs some room above the file itself.
	return (mb + 1) * 1024 * 1024
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Copies request id and trace id into the user context for slog.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(s.imageService.MediaURLPrefix(), s.imageService.UploadDir())

	authRequired := s.AuthRequired()
	optionalAuth := middleware.OptionalAuth(s.verifyAccess)

	api := app.Group("/api")

	access := api.Group("/access")
	access.Post("/token/", s.Login)
	access.Post("/token/refresh/", s.RefreshToken)
	access.Post("/logout/", s.Logout)

	api.Get("/categories/", s.ListCategories)

	posts := api.Group("/posts")
	posts.Get("/", optionalAuth, s.ListPosts)
	posts.Post("/", authRequired, s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like/", authRequired, s.ToggleLike)
	posts.Get("/:id/comments/", s.ListComments)
	posts.Post("/:id/comments/", authRequired, s.CreateComment)
	posts.Get("/:id/survey/", s.GetSurvey)
	posts.Post("/:id/survey/", authRequired, s.CreateSurvey)
	posts.Put("/:id/survey/", authRequired, s.UpdateSurvey)
	posts.Get("/:id/images/", s.ListImages)
	posts.Post("/:id/images/", authRequired, s.UploadImage)
	posts.Patch("/:id/status", authRequired, s.SetPostStatus)
	posts.Get("/:id", optionalAuth, s.GetPost)
	posts.Patch("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/:id", s.GetComment)
	comments.Put("/:id", authRequired, s.UpdateComment)
	comments.Delete("/:id", authRequired, s.DeleteComment)

	notifs := api.Group("/notifications", authRequired)
	notifs.Get("/", s.ListNotifications)
	notifs.Get("/unread_count/", s.UnreadNotificationCount)
	notifs.Post("/mark_all_read/", s.MarkAllNotificationsRead)
	notifs.Post("/:id/mark_read/", s.MarkNotificationRead)

	users := api.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/me", authRequired, s.GetMyProfile)

	api.Get("/ws/notifications",
		middleware.WebSocketAuthRequired(s.verifyAccess),
		requireUpgrade,
		s.NotificationStream(),
	)

	admin := api.Group("/admin", authRequired, s.StaffRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the board works, only slower and
	// without realtime delivery.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the realtime hub and serves HTTP until Shutdown.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	app := s.App()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification hub wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the pub/sub wiring goroutine.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down notification hub", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
