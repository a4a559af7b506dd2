package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"SKCKPortal/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Lookup returns the autofill fields for a NIK, or 404 when unknown.
func (h *Handler) Lookup(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	rec, err := h.service.LookupFor(c.Request().Context(), p.ID, c.Param("nik"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}
