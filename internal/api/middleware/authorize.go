package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trackerpro/tracker-auth/internal/api/metrics"
	"github.com/trackerpro/tracker-auth/internal/core/policy"
)

// LoginPath is where browsers are sent when a page needs authentication.
const LoginPath = "/login"

// Authorize evaluates the policy for the request path against the principal
// attached by Principal, which must run first. Challenged browser navigations
// are redirected to LoginPath; other challenged requests fail with
// domain.ErrAuthenticationRequired, and insufficient roles with domain.ErrForbidden.
func Authorize(evaluator *policy.Evaluator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			var decision policy.Decision
			if p, ok := PrincipalFrom(c); ok {
				decision = evaluator.Evaluate(path, &p)
			} else {
				decision = evaluator.Evaluate(path, nil)
			}
			metrics.AuthorizationDecisionsTotal.WithLabelValues(decision.String()).Inc()

			switch decision {
			case policy.Allow:
				return next(c)
			case policy.Challenge:
				log.Info().Str("path", path).Msg("authentication required")
				if wantsHTML(c.Request()) {
					return c.Redirect(http.StatusFound, LoginPath)
				}
			default:
				log.Warn().Str("path", path).Msg("access denied")
			}
			return decision.Err()
		}
	}
}

func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
