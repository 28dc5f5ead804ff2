package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/trackerpro/tracker-auth/docs"
	"github.com/trackerpro/tracker-auth/internal/api/handler"
	"github.com/trackerpro/tracker-auth/internal/api/middleware"
	"github.com/trackerpro/tracker-auth/internal/api/session"
	"github.com/trackerpro/tracker-auth/internal/core/policy"
	"github.com/trackerpro/tracker-auth/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer needs. Readiness may be
// empty when running on in-memory storage.
type Dependencies struct {
	Identity  ports.IdentityService
	Audit     ports.AuditSink
	Sessions  *session.Bridge
	Evaluator *policy.Evaluator
	Readiness map[string]handler.Pinger
	Log       zerolog.Logger
	// Registerer receives the HTTP request metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
}

// pages lists the placeholder pages and their paths.
var pages = map[string]string{
	"/":          "home",
	"/login":     "login",
	"/register":  "register",
	"/success":   "success",
	"/userlogin": "userlogin",
	"/forget":    "forget",
	"/dashboard": "dashboard",
	"/profile":   "profile",
	"/reports":   "reports",
	"/settings":  "settings",
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "tracker_auth",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Session principal and authorization (every route, public included) ---
	e.Use(echosession.Middleware(deps.Sessions.Store()))
	e.Use(middleware.Principal(deps.Sessions))
	e.Use(middleware.Authorize(deps.Evaluator, deps.Log))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Identity, deps.Sessions, deps.Audit, deps.Log)
	adminHandler := handler.NewAdminHandler(deps.Identity)
	pageHandler := handler.NewPageHandler()

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/check-email", authHandler.CheckEmail)
	auth.GET("/check-empid", authHandler.CheckEmployeeID)
	auth.GET("/me", authHandler.Me)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/logout", authHandler.Logout)

	// --- Admin routes (ADMIN role enforced by policy) ---
	admin := e.Group("/api/admin")
	admin.GET("/users/:empId", adminHandler.GetByEmployeeID)

	// --- Pages ---
	for path, name := range pages {
		e.GET(path, pageHandler.Page(name))
	}

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
