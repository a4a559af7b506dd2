package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/config"
	"SKCKPortal/pkg/apperror"
)

// NIKLookupLimit rate-limits registry lookups per signed-in user. It must run
// after JWTMiddleware.
func NIKLookupLimit(cfg config.IdentityConfig) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(cfg.LookupInterval),
		Burst:     cfg.LookupBurst,
		ExpiresIn: 10 * time.Minute,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			p, err := auth.PrincipalFrom(c)
			if err != nil {
				return "", err
			}
			return p.ID, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperror.From(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return apperror.RateLimited("Terlalu banyak pencarian NIK, coba lagi nanti")
		},
	})
}
