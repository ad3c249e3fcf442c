// internal/api/api.go
package api

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/datastore"
	"github.com/hqnguyen/wastenet-go/internal/logging"
	"github.com/hqnguyen/wastenet-go/internal/mqtt"
	"github.com/hqnguyen/wastenet-go/internal/observability"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings

	sseManager *SSEManager
	mqttClient mqtt.Client // nil when MQTT publication is disabled
	metrics    *observability.Metrics
	apiLogger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithMQTTClient enables detection publication through the given client.
func WithMQTTClient(client mqtt.Client) Option {
	return func(c *Controller) {
		c.mqttClient = client
	}
}

// New creates a Controller and registers all routes on the echo instance.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings, metrics *observability.Metrics, options ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		Echo:      e,
		Group:     e.Group("/api/v2"),
		DS:        ds,
		Settings:  settings,
		metrics:   metrics,
		apiLogger: logging.ForService("api"),
		ctx:       ctx,
		cancel:    cancel,
	}

	for _, opt := range options {
		opt(c)
	}

	c.sseManager = NewSSEManager(c.apiLogger)

	c.initWasteTypeRoutes()
	c.initRecordRoutes()
	c.initAnalyticsRoutes()
	c.initSSERoutes()
	c.initMediaRoutes()

	if c.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}

	return c
}

// Shutdown stops background goroutines and detaches subscribers.
func (c *Controller) Shutdown() {
	c.cancel()
	c.sseManager.CloseAll()
}
