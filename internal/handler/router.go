package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"basecode-go/internal/metrics"
	"basecode-go/internal/middleware"
)

// RouterConfig wires the cross-cutting pieces of the router
type RouterConfig struct {
	Renderer      render.HTMLRender
	Static        http.FileSystem
	Authenticator middleware.Authenticator
	Cookie        middleware.CookieSettings
	Sessions      sessions.Store
	SessionName   string
	CORSOrigins   []string
	HTTPMetrics   *metrics.HTTPMetrics
	Gatherer      prometheus.Gatherer
	MetricsPath   string
	Health        metrics.Pinger
	Logger        *zap.Logger
}

// Handlers are the page handlers mounted by NewRouter
type Handlers struct {
	Home     *HomeHandler
	Account  *AccountHandler
	Region   *RegionHandler
	Reporter *ErrorReporter
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.HTMLRender = cfg.Renderer

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(cfg.Logger.Named("http")))
	router.Use(h.Reporter.Recovery(renderError))
	if cfg.HTTPMetrics != nil {
		router.Use(middleware.Metrics(cfg.HTTPMetrics))
	}

	// Apply CORS only when origins are configured
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-CSRF-Token"},
			ExposeHeaders:    []string{"Content-Length", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Flash messages live in the session; routes without it skip flashes
	if cfg.Sessions != nil {
		router.Use(sessions.Sessions(cfg.SessionName, cfg.Sessions))
	}

	if cfg.Static != nil {
		router.StaticFS("/static", cfg.Static)
	}
	if cfg.Gatherer != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}
	if cfg.Health != nil {
		router.GET("/healthz", gin.WrapF(metrics.HealthHandler(cfg.Health)))
	}

	pages := router.Group("/")
	pages.Use(middleware.LoadUser(cfg.Authenticator, cfg.Cookie, cfg.Logger))

	h.Home.RegisterRoutes(pages)
	h.Account.RegisterRoutes(pages)
	h.Region.RegisterAPIRoutes(pages)

	// Protected routes
	protected := pages.Group("/")
	protected.Use(middleware.RequireAuth())
	h.Account.RegisterProtectedRoutes(protected)
	h.Region.RegisterRoutes(protected)

	router.NoRoute(middleware.LoadUser(cfg.Authenticator, cfg.Cookie, cfg.Logger), h.Home.NotFound)
	return router
}
