package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"SKCKPortal/pkg/apperror"
)

type AuthHandler struct {
	service *UserService
}

func NewAuthHandler(service *UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Permintaan tidak valid", nil)
	}

	user, err := h.service.RegisterUser(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var cred Credential
	if err := c.Bind(&cred); err != nil {
		return apperror.Validation("Permintaan tidak valid", nil)
	}

	token, user, err := h.service.AuthenticateUser(c.Request().Context(), cred)
	if err != nil {
		return err
	}
	// The client routes admins to the admin dashboard based on role.
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"role":  user.Role,
	})
}

func (h *AuthHandler) Profile(c echo.Context) error {
	p, err := PrincipalFrom(c)
	if err != nil {
		return err
	}
	user, err := h.service.Profile(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
