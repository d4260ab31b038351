package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/file-manager/internal/middleware"
	"github.com/iliyamo/file-manager/internal/model"
)

// AuthAPI is the account surface the handlers need.
type AuthAPI interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	Auth AuthAPI
}

func NewAuthHandler(auth AuthAPI) *AuthHandler { return &AuthHandler{Auth: auth} }

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func toUserResp(u *model.User) userResp { return userResp{ID: u.ID.String(), Email: u.Email} }

// Register creates a user: POST /users.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResp(u))
}

// Me returns the authenticated user: GET /users/me.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Connect exchanges Basic credentials for a session token: GET /connect.
func (h *AuthHandler) Connect(c echo.Context) error {
	email, password, ok := c.Request().BasicAuth()
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	token, err := h.Auth.Login(ctx, email, password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// Disconnect revokes the caller's token: GET /disconnect.
func (h *AuthHandler) Disconnect(c echo.Context) error {
	token := c.Request().Header.Get(middleware.TokenHeader)
	if err := h.Auth.Logout(c.Request().Context(), token); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
