// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/file-manager/internal/handler"
	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/metrics"
	"github.com/iliyamo/file-manager/internal/middleware"
)

// New returns an Echo instance with the global middleware chain: request
// id, metrics, then the structured request log.
func New(log logging.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(middleware.RequestID())
	if m != nil {
		e.Use(middleware.Metrics(m))
	}
	e.Use(middleware.RequestLogger(log))
	return e
}

// RegisterRoutes registers the unauthenticated health and statistics
// endpoints. cache wraps /stats only.
func RegisterRoutes(e *echo.Echo, app *handler.AppHandler, m *metrics.Metrics, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/status", app.Status)
	e.GET("/stats", app.Stats, cache)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers account routes. limiter guards the credential
// check on /connect.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth middleware.Authenticator, limiter echo.MiddlewareFunc) {
	e.POST("/users", a.Register)
	e.GET("/connect", a.Connect, limiter)

	session := middleware.RequireSession(auth)
	e.GET("/users/me", a.Me, session)
	e.GET("/disconnect", a.Disconnect, session)
}

// RegisterFiles registers the file routes. Everything requires a session
// except /files/:id/data, where public records are readable anonymously.
func RegisterFiles(e *echo.Echo, f *handler.FilesHandler, auth middleware.Authenticator) {
	e.GET("/files/:id/data", f.Data, middleware.OptionalSession(auth))

	g := e.Group("/files", middleware.RequireSession(auth))
	g.POST("", f.Create)
	g.GET("", f.Index)
	g.GET("/:id", f.Show)
	g.PUT("/:id/publish", f.Publish)
	g.PUT("/:id/unpublish", f.Unpublish)
}
