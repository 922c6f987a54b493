package stream

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>Lumina Cam</title>
    <style>
        body { font-family: Arial; text-align: center; padding: 20px; background: #1a1a1a; color: #fff; }
        h1 { color: #4CAF50; }
        img { max-width: 100%%; border: 2px solid #4CAF50; border-radius: 8px; }
        .info { background: #333; padding: 10px; border-radius: 5px; margin: 10px auto; max-width: 600px; }
    </style>
</head>
<body>
    <h1>Lumina Camera - Eyes Unit</h1>
    <div class="info">
        <p><strong>Stream URL:</strong> /stream</p>
        <p><strong>Status:</strong> %s</p>
    </div>
    <img src="/stream" />
</body>
</html>`

// NewServer builds the eyes unit's HTTP surface around the session
// manager: index page, the single-client live stream, status query,
// forced disconnect and metrics.
func NewServer(manager *Manager, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/", func(c echo.Context) error {
		state := "Idle"
		if manager.Active() {
			state = "Streaming"
		}
		return c.HTML(http.StatusOK, fmt.Sprintf(indexPage, state))
	})

	e.GET("/stream", func(c echo.Context) error {
		err := manager.Serve(c.Response())
		if err == ErrBusy {
			// The active session is unaffected by the rejection.
			return c.String(http.StatusServiceUnavailable, "busy: stream already in use\n")
		}
		if err != nil {
			logger.Debug("stream session error", zap.Error(err))
		}
		return nil
	})

	e.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, manager.Status())
	})

	e.POST("/disconnect", func(c echo.Context) error {
		if manager.CancelActive() {
			return c.JSON(http.StatusOK, map[string]string{"result": "disconnecting"})
		}
		return c.JSON(http.StatusOK, map[string]string{"result": "idle"})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
