// Package webui exposes the quantum environment over a JSON HTTP API,
// with a server-sent-events feed for live dashboards.
package webui

import (
	"net/http"
	"time"

	"github.com/agothe/agothe/core/sse"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/mudler/xlog"
)

type App struct {
	config  *Config
	manager sse.Manager
	*fiber.App
}

func NewApp(opts ...Option) *App {
	config := NewConfig(opts...)

	webapp := fiber.New(fiber.Config{
		AppName:               "Agothe Quantum API",
		DisableStartupMessage: true,
	})

	a := &App{
		config:  config,
		manager: sse.NewManager(5),
		App:     webapp,
	}

	a.registerRoutes(webapp)

	if config.Environment != nil {
		go a.broadcastOverview(config.BroadcastInterval)
	}

	return a
}

// broadcastOverview pushes a fresh overview snapshot to every SSE client
// on a fixed cadence, the live feed the dashboard refreshes from.
func (a *App) broadcastOverview(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		a.manager.Send(sse.NewJSONMessage("overview", a.config.Environment.Overview()))
	}
}

func errorJSONMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(struct {
		Error string `json:"error"`
	}{Error: message})
}

func badRequest(c *fiber.Ctx, err error) error {
	xlog.Debug("Malformed request body", "path", c.Path(), "error", err)
	return errorJSONMessage(c, http.StatusBadRequest, "malformed request body")
}
