package monitor

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewServer builds the body unit's monitoring HTTP surface.
func NewServer(hub *Hub, bootID string, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "lumina-body",
			"boot_id": bootID,
		})
	})

	e.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, hub.Latest())
	})

	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, logger)
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
