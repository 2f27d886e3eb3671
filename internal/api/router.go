package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/qrforge/qr-service/internal/api/handler"
	"github.com/qrforge/qr-service/internal/api/middleware"
	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 15 * time.Second

// Dependencies is everything the router needs to serve requests.
type Dependencies struct {
	Auth          ports.AuthService
	Accounts      ports.AccountService
	Catalog       ports.PlanCatalog
	QR            ports.QRService
	Subscriptions ports.SubscriptionService
	// Readiness checks, keyed by dependency name.
	Checks map[string]handler.Pinger
	// AuthRateLimit is the per-IP request rate allowed on /v1/auth.
	AuthRateLimit float64
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "qr",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Accounts)
	qrHandler := handler.NewQRHandler(deps.QR)
	subscriptionHandler := handler.NewSubscriptionHandler(deps.Catalog, deps.Subscriptions)
	adminHandler := handler.NewAdminHandler(deps.Accounts)
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)

	authMiddleware := middleware.Auth(deps.Auth)

	v1 := e.Group("/v1")

	// --- Auth routes ---
	authGroup := v1.Group("/auth")
	authGroup.Use(echomiddleware.RateLimiter(
		echomiddleware.NewRateLimiterMemoryStore(rate.Limit(deps.AuthRateLimit)),
	))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authHandler.Me, authMiddleware)

	// --- QR routes ---
	qr := v1.Group("/qr", authMiddleware)
	qr.POST("/generate", qrHandler.Generate)
	qr.GET("/history", qrHandler.History)
	qr.GET("/:id/download", qrHandler.Download)

	// --- Subscription routes ---
	subs := v1.Group("/subscriptions")
	subs.GET("/plans", subscriptionHandler.ListPlans)
	subs.POST("/subscribe", subscriptionHandler.Subscribe, authMiddleware)
	subs.GET("/me", subscriptionHandler.Current, authMiddleware)
	subs.GET("/history", subscriptionHandler.History, authMiddleware)

	// --- Admin routes ---
	admin := v1.Group("/admin", authMiddleware, middleware.RBAC(deps.Accounts, domain.RoleAdmin))
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.POST("/users/:id/usage/reset", adminHandler.ResetUsage)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
