package review

import (
	"net/http"

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

func (h *Handler) ListPending(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	apps, err := h.service.ListPending(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apps)
}

func (h *Handler) Submit(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req Request
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Permintaan tidak valid", nil)
	}
	app, err := h.service.SubmitReview(c.Request().Context(), p, c.Param("id"), req.Decision, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

// ListHistory serves ?status=all|approved|rejected, defaulting to all.
func (h *Handler) ListHistory(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	filter := c.QueryParam("status")
	if filter == "" {
		filter = FilterAll
	}
	apps, err := h.service.ListHistory(c.Request().Context(), p, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apps)
}

func (h *Handler) Stats(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	st, err := h.service.Stats(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}
