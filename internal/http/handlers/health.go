package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-url-shortener/internal/http/middleware"
)

// ComponentStatus reports one component of the health check.
type ComponentStatus struct {
	Status    string    `json:"status" example:"healthy"`
	Timestamp time.Time `json:"timestamp"`
	// Uptime is the process uptime in seconds (server component only).
	Uptime *float64 `json:"uptime,omitempty" example:"3600.5"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Success bool `json:"success" example:"true"`
	// Code is ErrCodeUnhealthy when the probe fails.
	Code     string           `json:"code,omitempty" example:"unhealthy"`
	Error    string           `json:"error,omitempty"`
	Database ComponentStatus  `json:"database"`
	Server   *ComponentStatus `json:"server,omitempty"`
}

// Health godoc
// @ID          health
// @Summary     Service health
// @Description Probes storage. Returns 200 when healthy and 500 with database status "unhealthy" otherwise.
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Failure     500  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	hs := h.svc.Health(c.Request.Context())
	if !hs.Healthy {
		middleware.LoggerFrom(c).Error().Err(hs.Err).Msg("health check failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, HealthResponse{
			Success:  false,
			Code:     ErrCodeUnhealthy,
			Error:    "Health check failed",
			Database: ComponentStatus{Status: "unhealthy", Timestamp: hs.CheckedAt},
		})
		return
	}

	uptime := hs.Uptime.Seconds()
	ok(c, http.StatusOK, HealthResponse{
		Success:  true,
		Database: ComponentStatus{Status: "healthy", Timestamp: hs.CheckedAt},
		Server:   &ComponentStatus{Status: "healthy", Timestamp: hs.CheckedAt, Uptime: &uptime},
	})
}
