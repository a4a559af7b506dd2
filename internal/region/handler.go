package region

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) Provinces(c echo.Context) error {
	return h.respond(c, func() ([]Area, error) { return h.client.Provinces(c.Request().Context()) })
}

func (h *Handler) Regencies(c echo.Context) error {
	return h.respond(c, func() ([]Area, error) { return h.client.Regencies(c.Request().Context(), c.Param("id")) })
}

func (h *Handler) Districts(c echo.Context) error {
	return h.respond(c, func() ([]Area, error) { return h.client.Districts(c.Request().Context(), c.Param("id")) })
}

func (h *Handler) Villages(c echo.Context) error {
	return h.respond(c, func() ([]Area, error) { return h.client.Villages(c.Request().Context(), c.Param("id")) })
}

func (h *Handler) respond(c echo.Context, load func() ([]Area, error)) error {
	areas, err := load()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, areas)
}
