package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"SKCKPortal/internal/auth"
	"SKCKPortal/pkg/apperror"
)

// PrincipalResolver turns a bearer token into the caller.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (auth.Principal, error)
}

// JWTMiddleware authenticates the request and stores the principal on the
// context. EventSource clients cannot set headers, so the token may also come
// in the access_token query parameter.
func JWTMiddleware(users PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return apperror.Unauthorized("Token tidak ditemukan")
			}
			p, err := users.ResolvePrincipal(c.Request().Context(), token)
			if err != nil {
				return err
			}
			auth.SetPrincipal(c, p)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.QueryParam("access_token")
}
