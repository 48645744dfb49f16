// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "askaway/docs" // swagger docs
	"askaway/internal/ai"
	"askaway/internal/bootstrap"
	"askaway/internal/config"
	"askaway/internal/featureflags"
	"askaway/internal/integrations"
	"askaway/internal/middleware"
	"askaway/internal/models"
	"askaway/internal/notifications"
	"askaway/internal/oauth"
	"askaway/internal/repository"
	"askaway/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

const defaultAllowedOrigins = "http://localhost:5173,http://127.0.0.1:5173"

// Deps are the already-initialized collaborators of a Server. Only Repos is
// required; every integration degrades to its unconfigured behavior when nil.
type Deps struct {
	Repos     *repository.Repositories
	Redis     *redis.Client
	Ping      func(ctx context.Context) error
	Generator ai.Generator
	Slack     *integrations.Slack
	Cloud     *integrations.AWS
	Google    oauth.Provider
	Spawn     service.Spawner
}

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	runtime      *bootstrap.Runtime
	redis        *redis.Client
	ping         func(ctx context.Context) error
	app          *fiber.App
	shutdownCtx  context.Context
	shutdownFn   context.CancelFunc
	tokens       *middleware.TokenManager
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService        *service.AuthService
	questionService    *service.QuestionService
	answerService      *service.AnswerService
	starService        *service.StarService
	aiService          *service.AIService
	integrationService *service.IntegrationService
}

// NewServer connects the configured backends and external clients and
// returns a ready Server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		ApplySchema: true,
		SeedSample:  cfg.SeedSampleData,
	})
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Repos: rt.Repos,
		Redis: rt.Redis,
		Ping:  rt.PingDatabase,
		Slack: integrations.NewSlack(integrations.SlackConfig{
			BotToken:     cfg.SlackBotToken,
			Channel:      cfg.SlackChannel,
			StatsChannel: cfg.SlackStatsChannel,
			FrontendURL:  cfg.FrontendURL,
		}),
	}

	deps.Cloud, err = integrations.NewAWS(ctx, integrations.AWSConfig{
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Region:          cfg.AWSRegion,
		Bucket:          cfg.AWSS3Bucket,
	})
	if err != nil {
		slog.WarnContext(ctx, "AWS clients disabled", "error", err)
	}

	if cfg.AIAPIKey != "" {
		gen, genErr := ai.NewGeminiGenerator(ctx, cfg.AIAPIKey, cfg.AIModel)
		if genErr != nil {
			slog.WarnContext(ctx, "AI generator disabled", "error", genErr)
		} else {
			deps.Generator = gen
		}
	}

	if cfg.GoogleOAuthConfigured() {
		deps.Google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	s, err := NewServerWithDeps(cfg, deps)
	if err != nil {
		_ = rt.Close(context.Background())
		return nil, err
	}
	s.runtime = rt
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the database and Redis.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Repos == nil {
		return nil, errors.New("server: repositories are required")
	}
	if deps.Slack == nil {
		deps.Slack = integrations.NewSlack(integrations.SlackConfig{FrontendURL: cfg.FrontendURL})
	}
	if deps.Cloud == nil {
		deps.Cloud, _ = integrations.NewAWS(context.Background(), integrations.AWSConfig{})
	}

	ttl := time.Duration(cfg.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &Server{
		config:       cfg,
		redis:        deps.Redis,
		ping:         deps.Ping,
		tokens:       middleware.NewTokenManager(cfg.JWTSecret, ttl),
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
	}

	// Initialize notifier and hub if Redis is available
	var events service.EventPublisher
	if deps.Redis != nil {
		s.notifier = notifications.NewNotifier(deps.Redis)
		s.hub = notifications.NewHub()
		events = s.notifier
	}

	repos := deps.Repos
	assistant := ai.NewAssistant(deps.Generator)

	s.authService = service.NewAuthService(repos.Users, repos.Stats, s.tokens, deps.Google, deps.Redis)
	s.questionService = service.NewQuestionService(
		repos.Questions, repos.Answers, repos.Users, events, deps.Slack, s.featureFlags, deps.Spawn)
	s.answerService = service.NewAnswerService(
		repos.Questions, repos.Answers, repos.Users, events, deps.Slack, s.featureFlags, deps.Spawn)
	s.starService = service.NewStarService(repos.Stars, repos.Answers, events, s.featureFlags)
	s.aiService = service.NewAIService(assistant, repos.Questions, repos.Answers, repos.Stats, s.featureFlags)
	s.integrationService = service.NewIntegrationService(
		deps.Slack, deps.Cloud, assistant.Enabled, repos.Stats, repos.Questions, deps.Spawn)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	middleware.InitMetrics(app, "askaway-api")
	app.Use(middleware.MetricsMiddleware())

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultAllowedOrigins
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: "RATE_LIMITED", Message: "Too many requests, please try again later."})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	authRequired := middleware.AuthRequired(s.tokens, s.redis)

	// Health checks
	app.Get("/", s.Welcome)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Ask Away API Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Classic account routes
	users := api.Group("/users")
	users.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.RegisterUser)
	users.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.LoginUser)

	// Token auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/login-json", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.LoginJSON)
	auth.Get("/google/login", s.GoogleLogin)
	auth.Get("/google/callback", s.GoogleCallback)
	auth.Get("/me", authRequired, s.GetMe)
	auth.Put("/me", authRequired, s.UpdateMe)
	auth.Delete("/me", authRequired, s.DeleteMe)
	auth.Get("/me/stats", authRequired, s.GetMyStats)
	auth.Post("/refresh", authRequired, s.Refresh)
	auth.Post("/logout", authRequired, s.Logout)

	// Questions: specific routes before the generic /:id
	questions := api.Group("/questions")
	questions.Post("/", authRequired, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_question"), s.CreateQuestion)
	questions.Get("/", s.ListQuestions)
	questions.Get("/search", s.SearchQuestions)
	questions.Get("/feed", authRequired, s.GetFeed)
	questions.Get("/:id/answers", s.GetQuestionAnswers)
	questions.Get("/:id", middleware.OptionalAuth(s.tokens, s.redis), s.GetQuestion)

	answers := api.Group("/answers")
	answers.Post("/", authRequired, middleware.RateLimit(
		s.redis, 20, time.Minute, "create_answer"), s.CreateAnswer)
	answers.Get("/:question_id", s.GetAnswers)

	stars := api.Group("/stars", authRequired)
	stars.Post("/", s.StarAnswer)
	stars.Get("/me", s.GetMyStars)
	stars.Delete("/:answer_id", s.UnstarAnswer)

	aiRoutes := api.Group("/ai", authRequired, middleware.RateLimit(
		s.redis, 20, time.Minute, "ai"))
	aiRoutes.Post("/summarize/:question_id", s.SummarizeQuestion)
	aiRoutes.Post("/suggest-tags", s.SuggestTags)
	aiRoutes.Get("/quality-score/:answer_id", s.GetQualityScore)
	aiRoutes.Get("/analytics/platform", s.GetAIAnalytics)

	integrationRoutes := api.Group("/integrations", authRequired)
	integrationRoutes.Post("/slack/notify", s.SlackNotify)
	integrationRoutes.Post("/slack/daily-summary", s.SlackDailySummary)
	integrationRoutes.Post("/aws/backup", s.AWSBackup)
	integrationRoutes.Post("/aws/metrics", s.AWSMetrics)
	integrationRoutes.Get("/status", s.IntegrationStatus)

	// Live feed websocket; browsers pass the token as ?token=
	api.Get("/ws", authRequired, s.LiveFeedHandler())
}

// Start builds the Fiber app, wires the live feed hub to Redis and blocks
// serving on the configured port.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Ask Away API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return models.RespondWithError(c, fiberErr.Code, err)
			}
			slog.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.StartRealtime(context.Background())

	slog.Info("Server starting", "port", s.config.Port, "env", s.config.Env, "db_driver", s.config.DBDriver)
	return app.Listen(":" + s.config.Port)
}

// StartRealtime subscribes the live feed hub to Redis. It is a no-op
// without Redis.
func (s *Server) StartRealtime(parent context.Context) {
	if s.notifier == nil || s.hub == nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	go func() {
		if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
			slog.Error(fmt.Sprintf("failed to start %s wiring", s.hub.Name()), "error", err)
		}
	}()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", "error", err)
		}
	}

	// Close WebSocket connections gracefully
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			slog.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
		}
	}

	if s.runtime != nil {
		if err := s.runtime.Close(ctx); err != nil {
			slog.Error("error closing backends", "error", err)
		}
	}

	slog.Info("Server shutdown complete")
	return nil
}
