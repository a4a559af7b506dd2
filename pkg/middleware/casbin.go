package middleware

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"SKCKPortal/internal/auth"
	"SKCKPortal/pkg/apperror"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// Objects are echo route patterns (c.Path()), not raw URLs.
const rbacPolicy = `
p, user, /api/profile, GET
p, user, /api/applications*, (GET)|(POST)
p, user, /api/notifications*, (GET)|(POST)
p, user, /api/regions/*, GET
p, user, /api/identity/*, GET
p, admin, /api/admin/*, (GET)|(POST)
g, admin, user
`

// NewEnforcer builds the role gate from the embedded model and policy.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	return casbin.NewEnforcer(m, stringadapter.NewAdapter(rbacPolicy))
}

// RoleGate enforces the RBAC policy for the principal set by JWTMiddleware.
func RoleGate(enf *casbin.Enforcer, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := auth.PrincipalFrom(c)
			if err != nil {
				return err
			}
			obj, act := c.Path(), c.Request().Method
			allowed, err := enf.Enforce(string(p.Role), obj, act)
			if err != nil {
				return apperror.Internal(err)
			}
			if !allowed {
				log.Debug("access denied",
					zap.String("user_id", p.ID),
					zap.String("role", string(p.Role)),
					zap.String("obj", obj),
					zap.String("act", act))
				return apperror.Forbidden("Anda tidak memiliki akses")
			}
			return next(c)
		}
	}
}
