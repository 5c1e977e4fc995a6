package server

import (
	"context"

	"studydigest/app/api"
	"studydigest/app/middleware"
	"studydigest/app/service"
	"studydigest/app/views"
	"studydigest/config"
	"studydigest/logger"
	"studydigest/session"
	"studydigest/store"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
)

const AudioPrefix = "/static/audio"

type Server struct {
	listenAddr string
	app        *fiber.App
	logger     logger.ILogger
}

type Deps struct {
	Service  *service.Service
	Sessions session.Store
	Pivots   *store.PivotStore
	Logger   logger.ILogger
}

func NewServer(cfg *config.Config, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	bodyLimit := cfg.App.MaxUploadBytes
	if bodyLimit <= 0 {
		bodyLimit = config.DefaultMaxUploadBytes
	}
	key := cfg.Session.Key
	if key == "" {
		key = encryptcookie.GenerateKey()
		d.Logger.Warn("SERVER", "SESSION_KEY not set, sessions will not survive a restart", nil)
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit,
		ErrorHandler:          api.NewErrorHandler(d.Logger),
		Views:                 views.Engine(),
		DisableStartupMessage: cfg.IsProduction(),
	})

	var (
		indexHandler  = api.NewIndexHandler(d.Service, d.Sessions, d.Logger, cfg.Session.TTL)
		fileHandler   = api.NewFileHandler(d.Sessions, d.Pivots)
		configHandler = api.NewConfigHandler(cfg.LLM)
		checkHandler  = api.NewCheckHandler
		check         = app.Group("/check")
	)

	app.Use(otelfiber.Middleware())
	app.Use(encryptcookie.New(encryptcookie.Config{Key: key}))
	app.Use(middleware.PlugStatic(AudioPrefix))
	app.Static(AudioPrefix, cfg.App.AudioDir)

	app.Get("/", indexHandler.HandleIndex)
	app.Post("/", indexHandler.HandleAction)
	app.Get("/pivot", fileHandler.HandlePivot)

	check.Get("/healthy", checkHandler().HandleHealthy)
	check.Get("/config", configHandler.HandleGetConfig)

	return &Server{
		listenAddr: cfg.App.Addr,
		app:        app,
		logger:     d.Logger,
	}
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("SERVER", "Listening", map[string]interface{}{"addr": s.listenAddr})
	return s.app.Listen(s.listenAddr)
}

func (s *Server) Stop(ctx context.Context) error {
	defer s.logger.Info("SERVER", "Server stopped", nil)
	return s.app.ShutdownWithContext(ctx)
}
