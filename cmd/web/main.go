package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"basecode-go/internal/auth"
	"basecode-go/internal/handler"
	"basecode-go/internal/logging"
	"basecode-go/internal/metrics"
	"basecode-go/internal/middleware"
	"basecode-go/internal/notification"
	"basecode-go/internal/region"
	"basecode-go/internal/repository"
	"basecode-go/pkg/config"
	"basecode-go/web"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Connect to database
	db, err := repository.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.MigrateOnStartup {
		if err := repository.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.RegisterDBStats(registry, db); err != nil {
		return err
	}

	// Initialize repositories and services
	userRepo := repository.NewUserRepository(db)
	regionRepo := repository.NewRegionRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)

	accountService := auth.NewAccountService(userRepo, cfg.Auth)
	regionService := region.NewRegionService(regionRepo)
	regionValidator := region.NewRegionValidator(regionService)

	sender, err := notification.NewSMTPSender(cfg.Email, logger)
	if err != nil {
		return err
	}
	emailService := notification.NewEmailService(cfg.Email, cfg.ExceptionEmail, templateRepo, sender, logger).
		WithRecorder(metrics.NewMailMetrics(registry))

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	// Initialize handlers
	reporter := handler.NewErrorReporter(emailService, logger)
	cookie := middleware.CookieSettings{Name: cfg.Auth.CookieName, Secure: cfg.Server.SecureCookies}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterConfig{
		Renderer:      renderer,
		Static:        web.Static(),
		Authenticator: accountService,
		Cookie:        cookie,
		Sessions:      middleware.NewSessionStore([]byte(cfg.Server.SessionKey), cfg.Server.SecureCookies),
		SessionName:   cfg.Server.SessionName,
		CORSOrigins:   cfg.Server.CORSOrigins,
		HTTPMetrics:   metrics.NewHTTPMetrics(registry),
		Gatherer:      registry,
		MetricsPath:   cfg.Server.MetricsPath,
		Health:        db,
		Logger:        logger,
	}, handler.Handlers{
		Home:     handler.NewHomeHandler(),
		Account:  handler.NewAccountHandler(accountService, emailService, regionService, reporter, handler.AccountSettings{Cookie: cookie, BaseURL: cfg.Server.BaseURL}, logger),
		Region:   handler.NewRegionHandler(regionService, regionValidator, reporter, logger),
		Reporter: reporter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           middleware.CSRF(cfg.Server, logger)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
