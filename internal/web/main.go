// Package web assembles the HTTP service: middleware, handlers and the
// lifecycle of the fiber app.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/audit"
	"github.com/qadesk-admin/qadesk-admin/internal/config"
	fiberlogger "github.com/qadesk-admin/qadesk-admin/internal/logger/adapter/fiber"
	"github.com/qadesk-admin/qadesk-admin/internal/presence"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler/admin/user"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler/auditlog"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler/entity"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler/login"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler/logout"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler/permissions"
	presencehandler "github.com/qadesk-admin/qadesk-admin/internal/web/handler/presence"
	"github.com/qadesk-admin/qadesk-admin/internal/web/middleware/auth"
)

// CheckAliveURI is the load balancer health check endpoint.
const CheckAliveURI = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// jsonErrorHandler turns unhandled errors into the JSON error shape every
// endpoint uses.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   jsonErrorHandler,
		},
	)

	// access log first so every request is logged, auth failures included
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAliveURI,
	}))

	app.Use(auth.Middleware(cfg))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	// core services shared by the handlers
	rbacService := rbac.NewService(db)
	settingsCache := audit.NewCache(db)
	recorder := audit.NewRecorder(db, settingsCache)
	queryService := audit.NewQueryService(db)
	hub := presence.NewHub(cfg.Webserver.Session.PresenceIdleTimeout)

	// init handlers (they register their own routes with permission checks)
	mustInit(login.Handler.Init(app, cfg, db, recorder))
	logout.Handler.Init(app, cfg)
	mustInit(permissions.Handler.Init(app, cfg, db, rbacService))
	mustInit(auditlog.Handler.Init(app, cfg, db, rbacService, queryService, settingsCache))
	mustInit(user.Handler.Init(app, cfg, db, recorder))
	mustInit(entity.Init(app, cfg, db, rbacService, recorder))
	mustInit(presencehandler.Handler.Init(app, cfg, hub))

	app.Get(CheckAliveURI, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
		}

		return c.SendString("ok")
	})

	return service
}

func mustInit(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("handler init failed")
	}
}
