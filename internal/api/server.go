package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	jwtware "github.com/gofiber/jwt/v3"

	"github.com/illegalcall/emoji-maker/internal/config"
	"github.com/illegalcall/emoji-maker/internal/service"
	"github.com/illegalcall/emoji-maker/pkg/database"
)

// Authenticator validates credentials with the identity provider and
// returns the provider-owned user id.
type Authenticator interface {
	SignIn(email, password string) (string, error)
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	db       *database.Clients
	emojis   *service.EmojiService
	profiles *service.ProfileService
	auth     Authenticator
	logger   *slog.Logger
}

func NewServer(cfg *config.Config, db *database.Clients, emojis *service.EmojiService, profiles *service.ProfileService, auth Authenticator, log *slog.Logger) *Server {
	app := fiber.New()

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
	}))

	server := &Server{
		app:      app,
		cfg:      cfg,
		db:       db,
		emojis:   emojis,
		profiles: profiles,
		auth:     auth,
		logger:   log,
	}

	// Routes
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	// Public routes
	api.Post("/login", s.handleLogin)

	// Protected routes
	protected := api.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
	}))
	protected.Post("/profile", s.handleEnsureProfile)
	protected.Post("/generate", s.handleGenerate)
	protected.Get("/emojis", s.handleListEmojis)
	protected.Get("/emojis/liked", s.handleLikedEmojis)
	protected.Post("/emojis/:id/like", s.handleToggleLike)
	protected.Delete("/emojis/:id", s.handleDeleteEmoji)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
