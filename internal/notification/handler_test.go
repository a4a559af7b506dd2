package notification_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/notification"
)

func withPrincipal(p auth.Principal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth.SetPrincipal(c, p)
			return next(c)
		}
	}
}

func TestHandlerListAndMarkRead(t *testing.T) {
	f := newServiceFixture(t)
	n := seed(t, f.store, "u1", "approved")
	h := notification.NewHandler(f.svc, f.hub)

	e := echo.New()
	g := e.Group("/api/notifications", withPrincipal(auth.Principal{ID: "u1", Role: auth.RoleUser}))
	g.GET("", h.ListUnread)
	g.POST("/:id/read", h.MarkRead)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var unread []notification.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unread))
	require.Len(t, unread, 1)
	assert.Equal(t, n.ID, unread[0].ID)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/"+n.ID.Hex()+"/read", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unread))
	assert.Empty(t, unread)
}

func TestHandlerStreamSendsUnreadSet(t *testing.T) {
	f := newServiceFixture(t)
	seed(t, f.store, "u1", "approved")
	h := notification.NewHandler(f.svc, f.hub)

	e := echo.New()
	e.GET("/api/notifications/stream", h.Stream, withPrincipal(auth.Principal{ID: "u1", Role: auth.RoleUser}))
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	assert.Equal(t, "unread", event)

	var ns []notification.Notification
	require.NoError(t, json.Unmarshal([]byte(data), &ns))
	require.Len(t, ns, 1)
	assert.Equal(t, "approved", ns[0].Title)
	assert.Equal(t, 1, f.hub.Subscribers("u1"))
}

func TestHandlerStreamEndsWhenHubCloses(t *testing.T) {
	f := newServiceFixture(t)
	h := notification.NewHandler(f.svc, f.hub)

	e := echo.New()
	e.GET("/api/notifications/stream", h.Stream, withPrincipal(auth.Principal{ID: "u1", Role: auth.RoleUser}))
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data: ") {
			break
		}
	}
	require.Equal(t, 1, f.hub.Subscribers("u1"))

	f.hub.Close()
	for scanner.Scan() {
	}
	assert.NoError(t, ctx.Err(), "stream must end before the client gives up")
	assert.Equal(t, 0, f.hub.Subscribers("u1"))
}
