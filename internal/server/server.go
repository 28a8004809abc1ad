package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"

	"github.com/nfrund/relay/internal/app"
	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/logging"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/relay"
	"github.com/nfrund/relay/internal/websocket"
)

// Server holds the dependencies for the relay process.
type Server struct {
	E           *echo.Echo
	Cfg         config.Provider
	injector    do.Injector
	bus         *pubsub.WatermillBridge
	bridge      *websocket.Bridge
	engine      *relay.Engine
	otelCleanup func()
}

// New creates a new Server instance with every service wired.
func New() *Server {
	logging.New()
	cfg := config.New()

	tracer, otelCleanup, err := pubsub.SetupOTel(context.Background(), pubsub.LoadTracingConfigFromEnv())
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	injector := app.New(cfg, tracer)
	bus := do.MustInvoke[*pubsub.WatermillBridge](injector)
	bridge := do.MustInvoke[*websocket.Bridge](injector)
	engine := do.MustInvoke[*relay.Engine](injector)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.GetAppOrigin()},
	}))
	e.Use(echoprometheus.NewMiddleware("relay"))

	return &Server{
		E:           e,
		Cfg:         cfg,
		injector:    injector,
		bus:         bus,
		bridge:      bridge,
		engine:      engine,
		otelCleanup: otelCleanup,
	}
}

// Engine is a getter for the relay engine, useful for testing.
func (s *Server) Engine() *relay.Engine {
	return s.engine
}
