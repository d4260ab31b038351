package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/file-manager/internal/model"
)

// userKey is the echo.Context key holding the authenticated *model.User.
const userKey = "user"

// SetUser stores the authenticated user on the request context.
func SetUser(c echo.Context, u *model.User) { c.Set(userKey, u) }

// CurrentUser returns the user stored by the session middleware.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(userKey).(*model.User)
	return u, ok && u != nil
}

// CurrentUserID returns the authenticated user id or "" for guests.
func CurrentUserID(c echo.Context) model.ID {
	if u, ok := CurrentUser(c); ok {
		return u.ID
	}
	return ""
}
