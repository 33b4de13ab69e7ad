// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/blog"
	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
	"inkwell/internal/search"
	"inkwell/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
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
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens       *middleware.TokenService
	featureFlags *featureflags.Manager
	notifier     *notifications.Notifier
	hub          *notifications.PostHub
	meili        *search.Meili
	search       *search.Service

	authService     *service.AuthService
	userService     *service.UserService
	postService     *service.PostService
	commentService  *service.CommentService
	reactionService *service.ReactionService
	categoryService *service.CategoryService
}

// NewServer connects to the database and Redis, seeds the default
// categories and creates a server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedCategories: true})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limits, token revocation and
// cross-instance events are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("config and database are required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		tokens:         middleware.NewTokenService(cfg.JWTSecret, redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewPostHub(notifications.NewReaderCounter(redisClient)),
	}
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}

	var engine search.Engine
	if cfg.MeiliURL != "" {
		s.meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey, cfg.MeiliIndex)
		engine = s.meili
	}
	s.search = search.NewService(engine, postRepo)

	events := notifications.NewDispatcher(s.hub, s.notifier)

	s.authService = service.NewAuthService(userRepo)
	s.userService = service.NewUserService(userRepo, s.search)
	s.postService = service.NewPostService(postRepo, commentRepo,
		service.WithSearch(s.search, s.search),
		service.WithEvents(events),
		service.WithMaxCommentDepth(cfg.CommentMaxDepth),
	)
	s.commentService = service.NewCommentService(commentRepo, postRepo, events, cfg.CommentMaxDepth)
	s.reactionService = service.NewReactionService(reactionRepo, postRepo, events)
	s.categoryService = service.NewCategoryService(categoryRepo, postRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

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
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application. Literal segments
// are registered before the parameterized routes they would otherwise match.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")
	auth := middleware.AuthRequired(s.tokens)
	optional := middleware.OptionalAuth(s.tokens)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Get("/check", auth, s.CheckAuth)
	authGroup.Post("/logout", auth, s.Logout)

	// Posts
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/archived", s.GetArchivedPosts)
	posts.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), optional, s.SearchPosts)
	posts.Get("/slug/:slug", s.GetPostBySlug)
	posts.Post("/", auth, middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", auth, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/comments/:commentId/replies", auth, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateReply)
	posts.Get("/:id/reactions", optional, s.GetReactions)
	posts.Put("/:id/reactions", auth, s.SetReaction)
	posts.Post("/:id/publish", auth, s.PublishPost)
	posts.Post("/:id/archive", auth, s.ArchivePost)
	posts.Post("/:id/unarchive", auth, s.UnarchivePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)

	// The caller's own posts in any state
	me := api.Group("/me", auth)
	me.Get("/posts", s.GetMyPosts)
	me.Get("/drafts", s.GetMyDrafts)
	me.Get("/posts/:id", s.GetMyPost)

	comments := api.Group("/comments", auth)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Get("/:slug/posts", s.GetCategoryPosts)
	categories.Post("/", auth, s.CreateCategory)

	users := api.Group("/users")
	users.Get("/me", auth, s.GetMyProfile)
	users.Put("/me", auth, s.UpdateMyProfile)
	users.Put("/me/password", auth, s.ChangePassword)
	users.Put("/me/about", auth, s.UpdateAbout)
	users.Delete("/me", auth, s.DeleteMyAccount)
	users.Get("/:id", s.GetUserProfile)

	admin := api.Group("/admin", auth, s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)

	ws := api.Group("/ws", s.WebSocketUpgrade(), optional)
	ws.Get("/posts/:id", s.PostEventsHandler())
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

	searchStatus := "disabled"
	if s.meili != nil {
		searchStatus = "unhealthy"
		if s.meili.Healthy() {
			searchStatus = "healthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"search":   searchStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(uint)

		admin, err := s.userService.IsAdmin(c.UserContext(), userID)
		if err != nil && !models.HasCode(err, models.CodeNotFound) {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Admin access required"))
		}
		return c.Next()
	}
}

// Start wires realtime delivery and listens on the configured port.
func (s *Server) Start() error {
	s.app = fiber.New(fiber.Config{
		AppName:   "Inkwell API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, fe)
			}
			slog.ErrorContext(c.UserContext(), "unhandled request error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)
	s.StartRealtime(context.Background())

	slog.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// StartRealtime subscribes the post hub to Redis so events published by any
// instance reach local followers. It is a no-op without Redis.
func (s *Server) StartRealtime(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	if !s.notifier.Enabled() {
		return
	}
	if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
		slog.Error("failed to start post hub wiring", "error", err)
	}
}

// Reindex pushes every public post to the search index.
func (s *Server) Reindex(ctx context.Context) error {
	if s.meili == nil {
		return nil
	}
	var posts []*models.Post
	offset := 0
	for {
		page, err := s.postService.ListPosts(ctx, blog.ScopePublic, 0, 100, offset)
		if err != nil {
			return err
		}
		posts = append(posts, page...)
		if len(page) < 100 {
			break
		}
		offset += len(page)
	}
	return s.search.Reindex(posts)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		slog.Error("error shutting down post hub", "error", err)
	}

	s.search.Wait()
	if s.meili != nil {
		s.meili.Close()
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", "error", rerr)
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
