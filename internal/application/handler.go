package application

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"SKCKPortal/internal/auth"
	"SKCKPortal/pkg/apperror"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Submit(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Permintaan tidak valid", nil)
	}
	app, err := h.service.Submit(c.Request().Context(), p, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, app)
}

func (h *Handler) ListMine(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var limit int64
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			return apperror.Validation("Parameter limit tidak valid", map[string]string{"limit": "must be a non-negative integer"})
		}
	}
	apps, err := h.service.ListMine(c.Request().Context(), p, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apps)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	app, err := h.service.Get(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}
