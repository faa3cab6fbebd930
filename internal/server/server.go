// Package server exposes the referral and match engine over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/config"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/featureflags"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/middleware"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/notifications"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/repository"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
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

	notifier     *notifications.Notifier
	dispatcher   *notifications.AsyncDispatcher
	featureFlags *featureflags.Manager

	referralService *service.ReferralService
	matchService    *service.MatchService
	questionService *service.QuestionService
	chatGate        *service.ChatGate
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: the chat gate then skips its cache, rate limits fail
// open and notifications are dropped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}
	middleware.InitMiddleware(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("referral-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	var dispatcher notifications.Dispatcher = notifications.NopDispatcher{}
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.dispatcher = notifications.NewAsyncDispatcher(s.notifier, cfg.NotifyTimeout())
		dispatcher = s.dispatcher
	}

	userRepo := repository.NewUserRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	questionRepo := repository.NewQuestionRepository(db)

	s.referralService = service.NewReferralService(
		repository.NewReferralRepository(db), userRepo, dispatcher,
		service.ReferralPolicy{
			RotationThreshold: cfg.ReferralRotationThreshold,
			MaxCodeAttempts:   cfg.ReferralCodeMaxAttempts,
		},
	)
	s.matchService = service.NewMatchService(
		repository.NewMatchRequestRepository(db), matchRepo, questionRepo, userRepo, dispatcher, s.featureFlags,
	)
	s.questionService = service.NewQuestionService(questionRepo)
	s.chatGate = service.NewChatGate(matchRepo, redisClient, cfg.ChatGateCacheTTL(), s.featureFlags)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Registration page checks codes before an account exists. Without a
	// limiter store the endpoint refuses requests rather than allow enumeration.
	api.Post("/referrals/validate", middleware.RateLimitWithPolicy(
		s.redis, s.validateLimit(), time.Minute, middleware.FailClosed, "referral_validate"), s.ValidateReferralCode)

	protected := api.Group("", middleware.AuthRequired)

	referrals := protected.Group("/referrals")
	referrals.Get("/code", s.GetMyReferralCode)
	referrals.Post("/code/rotate", middleware.RateLimit(
		s.redis, 5, time.Hour, "referral_rotate"), s.RotateMyReferralCode)
	referrals.Post("/redeem", middleware.RateLimit(
		s.redis, s.validateLimit(), time.Minute, "referral_redeem"), s.RedeemReferralCode)
	referrals.Get("/referred", s.GetMyReferrals)
	referrals.Get("/referrer", s.GetMyReferrer)

	matches := protected.Group("/matches")
	matches.Get("/", s.GetMyMatches)
	// Specific /requests routes before parameterized ones
	matches.Get("/requests", s.GetIncomingMatchRequests)
	matches.Get("/requests/sent", s.GetSentMatchRequests)
	matches.Get("/requests/:requestId/questions", s.GetMatchRequestQuestions)
	matches.Post("/requests/:requestId/accept", s.AcceptMatchRequest)
	matches.Post("/requests/:requestId/decline", s.DeclineMatchRequest)
	matches.Post("/requests/:userId", middleware.RateLimit(
		s.redis, s.matchRequestLimit(), time.Hour, "match_request"), s.CreateMatchRequest)

	questions := protected.Group("/questions")
	questions.Get("/", s.GetMyQuestions)
	questions.Post("/", s.CreateQuestion)
	questions.Put("/:questionId", s.UpdateQuestion)
	questions.Delete("/:questionId", s.RetireQuestion)

	protected.Get("/chat/access/:userId", s.GetChatAccess)
}

func (s *Server) validateLimit() int {
	if s.config.RateLimitValidatePerMinute > 0 {
		return s.config.RateLimitValidatePerMinute
	}
	return 20
}

func (s *Server) matchRequestLimit() int {
	if s.config.RateLimitMatchRequestsPerHour > 0 {
		return s.config.RateLimitMatchRequestsPerHour
	}
	return 60
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: a
// missing client degrades features but does not fail readiness.
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

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
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

// NewApp builds the Fiber app with middleware and routes attached.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Referral & Match API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, drains pending notifications and closes
// the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Wait(ctx); err != nil {
			middleware.Logger.Warn("pending notifications dropped at shutdown", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
