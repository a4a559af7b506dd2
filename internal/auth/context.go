package auth

import (
	"github.com/labstack/echo/v4"

	"SKCKPortal/pkg/apperror"
)

const principalKey = "principal"

func SetPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the caller placed on the context by the JWT middleware.
func PrincipalFrom(c echo.Context) (Principal, error) {
	p, ok := c.Get(principalKey).(Principal)
	if !ok || p.ID == "" {
		return Principal{}, apperror.Unauthorized("Silakan login terlebih dahulu")
	}
	return p, nil
}
