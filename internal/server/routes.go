package server

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all the application routes. The relay's surface is
// deliberately small: the socket endpoint plus operational endpoints.
func (s *Server) RegisterRoutes() {
	s.E.GET("/ws", s.bridge.Handler())

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	s.E.GET("/metrics", echoprometheus.NewHandler())
}
