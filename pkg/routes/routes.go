package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"SKCKPortal/internal/application"
	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/certificate"
	"SKCKPortal/internal/config"
	"SKCKPortal/internal/identity"
	"SKCKPortal/internal/logger"
	"SKCKPortal/internal/notification"
	"SKCKPortal/internal/region"
	"SKCKPortal/internal/review"
	"SKCKPortal/pkg/middleware"
)

// EchoModules wires the whole portal: infrastructure, feature services,
// background workers and the HTTP server.
var EchoModules = fx.Module("echo",
	fx.Provide(config.Load),
	fx.Provide(logger.FromConfig),
	fx.Provide(config.NewMongoDBClient),
	fx.Provide(config.NewRedisClient),
	fx.Provide(config.NewMailer),
	fx.Provide(middleware.NewEnforcer),

	fx.Provide(auth.NewTokenIssuer),
	fx.Provide(auth.NewUserRepository),
	fx.Provide(newUserService),
	fx.Provide(auth.NewAuthHandler),

	fx.Provide(identity.NewRepository),
	fx.Provide(newIdentityService),
	fx.Provide(identity.NewHandler),

	fx.Provide(application.NewRepository),
	fx.Provide(newApplicationService),
	fx.Provide(application.NewHandler),

	fx.Provide(notification.NewRepository),
	fx.Provide(newHub),
	fx.Provide(newNotificationService),
	fx.Provide(newPoller),
	fx.Provide(notification.NewHandler),

	fx.Provide(newReviewService),
	fx.Provide(newDispatcher),
	fx.Provide(review.NewHandler),

	fx.Provide(newRegionClient),
	fx.Provide(region.NewHandler),

	fx.Provide(newCertificateService),
	fx.Provide(certificate.NewHandler),

	fx.Provide(NewEchoServer),
	fx.Invoke(EnsureIndexes),
	fx.Invoke(func(p *notification.Poller, lc fx.Lifecycle) { p.Start(lc) }),
	fx.Invoke(func(d *review.Dispatcher, lc fx.Lifecycle) { d.Start(lc) }),
	fx.Invoke(RegisterRoutes))

func newUserService(repo *auth.UserRepository, tokens *auth.TokenIssuer, log *zap.Logger) *auth.UserService {
	return auth.NewUserService(repo, tokens, log)
}

func newIdentityService(repo *identity.Repository, log *zap.Logger) *identity.Service {
	return identity.NewService(repo, log)
}

func newApplicationService(repo *application.Repository, ids *identity.Service, log *zap.Logger) *application.Service {
	return application.NewService(repo, ids, log)
}

func newHub(repo *notification.Repository, cfg *config.Config, log *zap.Logger) *notification.Hub {
	return notification.NewHub(repo, cfg.Notification.DwellTime, log)
}

func newNotificationService(repo *notification.Repository, hub *notification.Hub, mailer config.Mailer, users *auth.UserService, log *zap.Logger) *notification.Service {
	return notification.NewService(repo, hub, mailer, users, log)
}

func newPoller(hub *notification.Hub, cfg *config.Config, log *zap.Logger) *notification.Poller {
	return notification.NewPoller(hub, cfg.Notification.PollInterval, log)
}

func newReviewService(apps *application.Repository, notifier *notification.Service, users *auth.UserService, log *zap.Logger) *review.Service {
	return review.NewService(apps, notifier, users, log)
}

func newDispatcher(svc *review.Service, cfg *config.Config, log *zap.Logger) *review.Dispatcher {
	return review.NewDispatcher(svc, cfg.Notification.DispatchInterval, cfg.Notification.DispatchBatch, log)
}

func newRegionClient(cfg *config.Config, rdb *redis.Client, log *zap.Logger) *region.Client {
	return region.NewClient(cfg.Region, rdb, log)
}

func newCertificateService(apps *application.Service, cfg *config.Config, log *zap.Logger) *certificate.Service {
	return certificate.NewService(apps, certificate.NewRenderer(cfg.Certificate), log)
}

// IndexParams collects every repository that owns indexes.
type IndexParams struct {
	fx.In

	Users         *auth.UserRepository
	Applications  *application.Repository
	Notifications *notification.Repository
}

// EnsureIndexes creates the collection indexes before the server accepts
// requests.
func EnsureIndexes(lc fx.Lifecycle, p IndexParams, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for name, ensure := range map[string]func(context.Context) error{
				"users":             p.Users.EnsureIndexes,
				"skck_applications": p.Applications.EnsureIndexes,
				"notifications":     p.Notifications.EnsureIndexes,
			} {
				if err := ensure(ctx); err != nil {
					log.Error("ensure indexes", zap.String("collection", name), zap.Error(err))
					return err
				}
			}
			return nil
		},
	})
}

func NewEchoServer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, notifications *notification.Service, hub *notification.Hub) *echo.Echo {
	e := echo.New()
	middleware.SetupMiddleware(e, cfg, log)
	addr := cfg.Server.Addr()
	// Shutdown waits for active responses; closing the hub ends open streams.
	e.Server.RegisterOnShutdown(hub.Close)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("server running", zap.String("addr", addr))
			go func() {
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("failed to start the server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down the server")
			err := e.Shutdown(ctx)
			notifications.Wait()
			return err
		},
	})
	return e
}

// RouteParams gathers the handlers mounted by RegisterRoutes.
type RouteParams struct {
	fx.In

	Echo          *echo.Echo
	Config        *config.Config
	Log           *zap.Logger
	Enforcer      *casbin.Enforcer
	Users         *auth.UserService
	Auth          *auth.AuthHandler
	Identity      *identity.Handler
	Applications  *application.Handler
	Notifications *notification.Handler
	Review        *review.Handler
	Regions       *region.Handler
	Certificates  *certificate.Handler
}

func RegisterRoutes(p RouteParams) {
	e := p.Echo
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/register", p.Auth.Register)
	e.POST("/login", p.Auth.Login)

	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware(p.Users))
	api.Use(middleware.RoleGate(p.Enforcer, p.Log))

	api.GET("/profile", p.Auth.Profile)
	api.GET("/identity/:nik", p.Identity.Lookup, middleware.NIKLookupLimit(p.Config.Identity))

	api.POST("/applications", p.Applications.Submit)
	api.GET("/applications", p.Applications.ListMine)
	api.GET("/applications/:id", p.Applications.Get)
	api.GET("/applications/:id/certificate", p.Certificates.Download)

	api.GET("/notifications", p.Notifications.ListUnread)
	api.POST("/notifications/:id/read", p.Notifications.MarkRead)
	api.GET("/notifications/stream", p.Notifications.Stream)

	api.GET("/regions/provinces", p.Regions.Provinces)
	api.GET("/regions/provinces/:id/regencies", p.Regions.Regencies)
	api.GET("/regions/regencies/:id/districts", p.Regions.Districts)
	api.GET("/regions/districts/:id/villages", p.Regions.Villages)

	admin := api.Group("/admin")
	admin.GET("/applications", p.Review.ListPending)
	admin.POST("/applications/:id/review", p.Review.Submit)
	admin.GET("/history", p.Review.ListHistory)
	admin.GET("/stats", p.Review.Stats)
}
