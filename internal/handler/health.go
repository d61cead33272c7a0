package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/connectivity"
)

// HealthHandler reports process and connectivity state.
type HealthHandler struct {
	Status  *connectivity.Status
	Started time.Time
}

func NewHealthHandler(status *connectivity.Status) *HealthHandler {
	return &HealthHandler{Status: status, Started: time.Now()}
}

// Health is a liveness endpoint that also exposes whether the device
// currently has upstream connectivity.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"online": h.Status.Online(),
		"uptime": time.Since(h.Started).Round(time.Second).String(),
	})
}
