package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/file-manager/internal/model"
	"github.com/iliyamo/file-manager/internal/service"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-Token"

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// errUnauthorized is the body every rejected request gets.
var errUnauthorized = echo.Map{"error": "Unauthorized"}

// RequireSession rejects requests without a live X-Token with 401 and
// stores the resolved user for downstream handlers.
func RequireSession(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(TokenHeader)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, errUnauthorized)
			}
			u, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					return c.JSON(http.StatusUnauthorized, errUnauthorized)
				}
				return err
			}
			SetUser(c, u)
			return next(c)
		}
	}
}

// OptionalSession resolves X-Token when present but lets guests through,
// for routes where public records are readable anonymously.
func OptionalSession(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := c.Request().Header.Get(TokenHeader); token != "" {
				if u, err := auth.Authenticate(c.Request().Context(), token); err == nil {
					SetUser(c, u)
				}
			}
			return next(c)
		}
	}
}
