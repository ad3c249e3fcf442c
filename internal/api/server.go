// internal/api/server.go
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/datastore"
	"github.com/hqnguyen/wastenet-go/internal/logging"
	"github.com/hqnguyen/wastenet-go/internal/observability"
)

// Server wraps the echo instance serving the backend API.
type Server struct {
	Echo       *echo.Echo
	Controller *Controller
	settings   *conf.Settings
	logger     *slog.Logger
	closeLog   func() error
}

// NewServer builds the echo instance with middleware and registers the
// API controller on it. When a web server log file is configured the
// request log goes there with rotation, otherwise to the shared
// structured logger.
func NewServer(settings *conf.Settings, ds datastore.Interface, metrics *observability.Metrics, options ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	logger := logging.ForService("webserver")
	var closeLog func() error
	if settings.WebServer.Log.Enabled {
		fileLogger, closer, err := logging.NewFileLogger(settings.WebServer.Log.Path, "webserver", slog.LevelInfo)
		if err != nil {
			if logger != nil {
				logger.Warn("request log file unavailable", "path", settings.WebServer.Log.Path, "error", err)
			}
		} else {
			logger = fileLogger
			closeLog = closer
		}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if logger == nil {
				return nil
			}
			if v.Error != nil {
				logger.Error("request", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
			} else {
				logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			}
			return nil
		},
	}))

	controller := New(e, ds, settings, metrics, options...)

	return &Server{
		Echo:       e,
		Controller: controller,
		settings:   settings,
		logger:     logger,
		closeLog:   closeLog,
	}
}

// Start begins serving on the configured port. Blocks until the server
// stops.
func (s *Server) Start() error {
	addr := ":" + s.settings.WebServer.Port
	if s.logger != nil {
		s.logger.Info("web server listening", "addr", addr)
	}
	return s.Echo.Start(addr)
}

// Shutdown stops the server gracefully and detaches push subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Controller.Shutdown()
	err := s.Echo.Shutdown(ctx)
	if s.closeLog != nil {
		_ = s.closeLog()
	}
	return err
}
