// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "arche/docs" // swagger docs
	"arche/internal/auth"
	"arche/internal/cache"
	"arche/internal/config"
	"arche/internal/database"
	"arche/internal/featureflags"
	"arche/internal/gamification"
	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/notifications"
	"arche/internal/repository"
	"arche/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	app          *fiber.App
	shutdownCtx  context.Context
	shutdownFn   context.CancelFunc
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
	auth         *auth.Service

	savoirService   *service.SavoirService
	voteService     *service.VoteService
	commentService  *service.CommentService
	reactionService *service.ReactionService
	socialService   *service.SocialService
	profileService  *service.ProfileService
	activityService *service.ActivityService
	imageService    *service.ImageService
}

// NewServer connects to PostgreSQL and Redis and builds the server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redis client disables the live feed, the blacklist and rate limits.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("server requires a config and a database")
	}

	profileRepo := repository.NewProfileRepository(db)
	savoirRepo := repository.NewSavoirRepository(db)
	followRepo := repository.NewFollowRepository(db)

	server := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
	}

	if ignored := server.featureFlags.Ignored(); len(ignored) > 0 {
		middleware.Logger.Warn("ignoring malformed feature flags", slog.Any("entries", ignored))
	}

	var publisher service.ActivityPublisher
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
		publisher = server.notifier
	}

	var providers []auth.OAuthProvider
	if cfg.OAuthEnabled() {
		redirect := strings.TrimRight(cfg.PublicURL, "/") + "/api/auth/callback/google"
		providers = append(providers, auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, redirect))
	}
	server.auth = auth.NewService(auth.ServiceConfig{
		Identities: repository.NewIdentityRepository(db),
		Profiles:   profileRepo,
		Tokens:     auth.NewTokenManager(cfg.SessionSecret, cfg.SessionMaxAge()),
		Redis:      redisClient,
		UpdateAge:  cfg.SessionUpdateAge(),
		Providers:  providers,
	})

	catalog := gamification.Default
	activities := service.NewActivityService(repository.NewActivityRepository(db), followRepo, publisher)
	reputation := service.NewReputationService(profileRepo, catalog)

	server.activityService = activities
	server.savoirService = service.NewSavoirService(savoirRepo, activities, reputation)
	server.voteService = service.NewVoteService(repository.NewVoteRepository(db), savoirRepo, activities, reputation)
	server.commentService = service.NewCommentService(repository.NewCommentRepository(db), savoirRepo, activities)
	server.reactionService = service.NewReactionService(repository.NewReactionRepository(db), savoirRepo, activities)
	server.socialService = service.NewSocialService(
		repository.NewFavoriteRepository(db), followRepo, savoirRepo, profileRepo, activities)
	server.profileService = service.NewProfileService(profileRepo, catalog)
	server.imageService = service.NewImageService(cfg)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	middleware.InitMetrics(app, "arche-api")
	app.Use(middleware.TracingMiddleware())
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, apikey, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders:    middleware.SessionHeader,
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Trop de requêtes, veuillez réessayer plus tard.",
				Code:  models.CodeRateLimited,
			})
		},
	}))
}

// apiKeyExempt lists the /api paths reachable without the apikey header:
// browsers land on them through redirects or websocket upgrades.
var apiKeyExempt = []string{"/api/auth/oauth/", "/api/auth/callback/", "/api/ws/"}

func (s *Server) requireAPIKey() fiber.Handler {
	check := middleware.APIKey(s.config.AnonKey, s.config.ServiceKey)
	return func(c *fiber.Ctx) error {
		for _, prefix := range apiKeyExempt {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}
		return check(c)
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static("/media", s.imageService.UploadDir(), fiber.Static{MaxAge: 31536000})

	authRequired := middleware.AuthRequired(s.auth)
	authOptional := middleware.AuthOptional(s.auth)

	api := app.Group("/api", s.requireAPIKey())

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", middleware.RateLimit(s.redis, middleware.SignUpLimit), s.SignUp)
	authGroup.Post("/signin", middleware.RateLimit(s.redis, middleware.SignInLimit), s.SignIn)
	authGroup.Get("/oauth/:provider", s.OAuthRedirect)
	authGroup.Get("/callback/:provider", s.OAuthCallback)
	authGroup.Get("/session", authOptional, s.GetSession)
	authGroup.Get("/me", authRequired, s.GetMe)
	authGroup.Post("/signout", s.SignOut)

	// Savoirs
	savoirs := api.Group("/savoirs")
	savoirs.Get("/", authOptional, s.ListSavoirs)
	savoirs.Post("/", authRequired, middleware.RateLimit(s.redis, middleware.SavoirWriteLimit), s.CreateSavoir)
	savoirs.Get("/:id", authOptional, s.GetSavoir)
	savoirs.Patch("/:id", authRequired, s.UpdateSavoir)
	savoirs.Delete("/:id", authRequired, s.DeleteSavoir)
	api.Get("/search", middleware.RateLimit(s.redis, middleware.SearchLimit), s.SearchSavoirs)

	// Interactions
	api.Get("/votes", authOptional, s.GetVote)
	api.Post("/votes", authRequired, middleware.RateLimit(s.redis, middleware.VoteLimit), s.CastVote)
	api.Get("/comments", s.GetComments)
	api.Post("/comments", authRequired, middleware.RateLimit(s.redis, middleware.CommentLimit), s.CreateComment)
	api.Get("/reactions", authOptional, s.GetReactions)
	api.Post("/reactions", authRequired, middleware.RateLimit(s.redis, middleware.ReactionLimit), s.AddReaction)

	// Social graph. Specific /check routes before the generic ones.
	api.Get("/favorites/check", authOptional, s.CheckFavorite)
	api.Get("/favorites", authRequired, s.GetFavorites)
	api.Post("/favorites", authRequired, s.ToggleFavorite)
	api.Get("/follows/check", authOptional, s.CheckFollow)
	api.Get("/follows", s.GetFollows)
	api.Post("/follows", authRequired, s.ToggleFollow)

	// Profiles
	api.Get("/profiles", s.GetLeaderboard)
	api.Patch("/profiles", authRequired, s.UpdateProfile)
	api.Get("/profiles/:username", s.GetProfile)

	api.Get("/activities", authOptional, s.GetActivities)
	api.Get("/gamification/badges", s.GetBadges)
	api.Post("/images", authRequired, s.featureRequired(featureflags.ImageUploads),
		middleware.RateLimit(s.redis, middleware.ImageUploadLimit), s.UploadImage)

	// Live feed
	ws := api.Group("/ws", authOptional, s.featureRequired(featureflags.LiveFeed))
	ws.Get("/activities", s.WebSocketUpgrade, s.ActivityFeedHandler())

	// Admin routes
	admin := api.Group("/admin", middleware.ServiceOnly)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "L'Arche des Savoirs API",
		BodyLimit: (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
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
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	// Redis only backs caches and the live feed; the API keeps serving without it.
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

// Start wires the live feed to Redis and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start live feed wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
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
			middleware.Logger.Error("error shutting down live feed", slog.String("error", err.Error()))
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

	middleware.Logger.Info("server shutdown complete")
	return nil
}
