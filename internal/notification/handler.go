package notification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"SKCKPortal/internal/auth"
)

const heartbeatInterval = 15 * time.Second

type Handler struct {
	service *Service
	hub     *Hub
}

func NewHandler(service *Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

func (h *Handler) ListUnread(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	ns, err := h.service.ListUnread(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ns)
}

func (h *Handler) MarkRead(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream sends the caller's unread set as server-sent "unread" events, once
// on connect and again on every change, until the client goes away or the
// hub shuts down.
func (h *Handler) Stream(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	// Only the latest set matters, so a pending update is replaced.
	updates := make(chan []Notification, 1)
	unsubscribe, err := h.hub.Subscribe(ctx, p.ID, func(ns []Notification) {
		select {
		case <-updates:
		default:
		}
		updates <- ns
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.hub.Done():
			return nil
		case ns := <-updates:
			data, err := json.Marshal(ns)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: unread\ndata: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
