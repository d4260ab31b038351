package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Liveness is implemented by the KV and document store adapters.
type Liveness interface {
	IsAlive() bool
}

// Counter reports collection sizes for /stats.
type Counter interface {
	CountUsers(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)
}

// AppHandler serves the health and statistics endpoints.
type AppHandler struct {
	KV Liveness
	DB interface {
		Liveness
		Counter
	}
}

// Health is a plain liveness probe for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Status reports whether both backing stores are reachable. It answers 503
// when either is down so orchestrators can route around the instance.
func (h *AppHandler) Status(c echo.Context) error {
	redisUp, dbUp := h.KV.IsAlive(), h.DB.IsAlive()
	code := http.StatusOK
	if !redisUp || !dbUp {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, echo.Map{"redis": redisUp, "db": dbUp})
}

// Stats returns the number of users and files.
func (h *AppHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.DB.CountUsers(ctx)
	if err != nil {
		return respondError(c, err)
	}
	files, err := h.DB.CountFiles(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users, "files": files})
}
