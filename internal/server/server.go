package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/relay/internal/config"
	relaymw "github.com/nfrund/relay/internal/middleware"
	"github.com/nfrund/relay/internal/module"
	"github.com/nfrund/relay/internal/registry"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      config.Provider
	Registry *registry.Registry
	modules  []module.Module
}

// New creates a server with the standard middleware chain. Modules are
// registered and booted by InitModules.
func New(cfg config.Provider, modules []module.Module) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(relaymw.Logger)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.GetAllowedOrigins(),
	}))

	s := &Server{
		E:        e,
		Cfg:      cfg,
		Registry: registry.New(cfg),
		modules:  modules,
	}
	s.RegisterRoutes()
	return s
}

// Modules returns the modules served by this server.
func (s *Server) Modules() []module.Module {
	return s.modules
}
