package routes

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"SKCKPortal/internal/application"
	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/certificate"
	"SKCKPortal/internal/config"
	"SKCKPortal/internal/identity"
	"SKCKPortal/internal/notification"
	"SKCKPortal/internal/notification/notificationtest"
	"SKCKPortal/internal/region"
	"SKCKPortal/internal/review"
	"SKCKPortal/pkg/middleware"
)

func TestModuleGraph(t *testing.T) {
	require.NoError(t, fx.ValidateApp(EchoModules))
}

// Every mounted API route must be reachable by the role it is meant for.
func TestRoutesMatchPolicy(t *testing.T) {
	enf, err := middleware.NewEnforcer()
	require.NoError(t, err)

	e := echo.New()
	RegisterRoutes(RouteParams{
		Echo:          e,
		Config:        &config.Config{Identity: config.IdentityConfig{LookupInterval: time.Second, LookupBurst: 1}},
		Log:           zap.NewNop(),
		Enforcer:      enf,
		Users:         &auth.UserService{},
		Auth:          &auth.AuthHandler{},
		Identity:      &identity.Handler{},
		Applications:  &application.Handler{},
		Notifications: &notification.Handler{},
		Review:        &review.Handler{},
		Regions:       &region.Handler{},
		Certificates:  &certificate.Handler{},
	})

	var checked int
	for _, r := range e.Routes() {
		if !strings.HasPrefix(r.Path, "/api/") || strings.HasSuffix(r.Path, "*") {
			continue
		}
		checked++
		adminOnly := strings.HasPrefix(r.Path, "/api/admin/")

		ok, err := enf.Enforce(string(auth.RoleAdmin), r.Path, r.Method)
		require.NoError(t, err)
		assert.True(t, ok, "admin %s %s", r.Method, r.Path)

		ok, err = enf.Enforce(string(auth.RoleUser), r.Path, r.Method)
		require.NoError(t, err)
		assert.Equal(t, !adminOnly, ok, "user %s %s", r.Method, r.Path)
	}
	assert.GreaterOrEqual(t, checked, 17)
}

func TestServerShutdownClosesHub(t *testing.T) {
	store := notificationtest.NewMemoryStore()
	hub := notification.NewHub(store, time.Hour, zap.NewNop())
	svc := notification.NewService(store, hub, nil, nil, zap.NewNop())
	cfg := &config.Config{Server: config.ServerConfig{Port: 0}}

	e := NewEchoServer(fxtest.NewLifecycle(t), cfg, zap.NewNop(), svc, hub)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Shutdown(ctx))

	select {
	case <-hub.Done():
	case <-ctx.Done():
		t.Fatal("hub not closed on server shutdown")
	}
}
