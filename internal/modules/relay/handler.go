package relay

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/relay/internal/middleware"
	"github.com/nfrund/relay/internal/presence"
)

// Handler serves the presence API.
type Handler struct {
	presence *presence.Registry
}

// NewHandler creates a new presence handler.
func NewHandler(p *presence.Registry) *Handler {
	return &Handler{presence: p}
}

// GetPresence returns the current online count and names as JSON.
func (h *Handler) GetPresence(c echo.Context) error {
	if h.presence == nil {
		middleware.FromContext(c.Request().Context()).Error("Presence registry is nil")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "presence service not available",
		})
	}

	return c.JSON(http.StatusOK, h.presence.Snapshot())
}
