package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// ContextKeyPrincipal is the echo.Context key under which the principal is stored.
const ContextKeyPrincipal = "principal"

// PrincipalLoader reconstructs the identity of the current request.
type PrincipalLoader interface {
	Load(c echo.Context) (domain.Principal, bool)
}

// Principal reconstructs the session principal on every request, public paths
// included, and attaches it to both the echo context and the request context.
// Requests without a complete principal pass through anonymously.
func Principal(loader PrincipalLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p, ok := loader.Load(c); ok {
				c.Set(ContextKeyPrincipal, p)
				req := c.Request()
				c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), p)))
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal attached by the Principal middleware.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(ContextKeyPrincipal).(domain.Principal)
	return p, ok && p.Complete()
}
