package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	analysisapp "github.com/buynest/backend/internal/application/analysis"
	"github.com/buynest/backend/internal/infrastructure/config"
	"github.com/buynest/backend/internal/infrastructure/currency"
	"github.com/buynest/backend/internal/infrastructure/logger"
	"github.com/buynest/backend/internal/infrastructure/metrics"
	"github.com/buynest/backend/internal/infrastructure/rendering"
	"github.com/buynest/backend/internal/infrastructure/storefront"
	"github.com/buynest/backend/internal/interfaces/http/handler"
	"github.com/buynest/backend/internal/interfaces/http/middleware"
	"github.com/buynest/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BuyNest Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Invalid report timezone", zap.Error(err))
	}

	m := metrics.New()

	// Storefront client is optional; without it only the raw-stream
	// endpoints are usable.
	var source analysisapp.RecordSource
	if cfg.Storefront.BaseURL != "" {
		client, err := storefront.NewClient(storefront.Config{
			BaseURL: cfg.Storefront.BaseURL,
			Token:   cfg.Storefront.Token,
			Timeout: cfg.Storefront.Timeout,
		})
		if err != nil {
			log.Fatal("Failed to create storefront client", zap.Error(err))
		}
		source = client
		log.Info("Storefront client configured", zap.String("base_url", cfg.Storefront.BaseURL))
	} else {
		log.Warn("No storefront base URL configured, storefront-backed endpoints disabled")
	}

	// Chart region renderer backed by headless Chrome
	renderer, err := rendering.NewChromedpRenderer(&rendering.ChromedpConfig{
		DefaultTimeout: cfg.Render.Timeout,
		RemoteURL:      cfg.Render.RemoteURL,
		NoSandbox:      cfg.Render.NoSandbox,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to create chart renderer", zap.Error(err))
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing renderer", zap.Error(err))
		}
	}()

	formatter := currency.NewFormatter(cfg.Report.CurrencyPrefix)

	// Application services
	analysisService := analysisapp.NewService(source, log, m, analysisapp.Options{
		TopProducts: cfg.Report.TopProducts,
		DefaultDays: cfg.Report.DefaultDays,
		Location:    loc,
	})
	exportService := analysisapp.NewExportService(
		analysisService,
		renderer,
		rendering.NewChartBuilder(formatter,
			rendering.WithDimensions(cfg.Render.Width, cfg.Render.Height)),
		formatter,
		nil,
		log,
		m,
		analysisapp.ExportOptions{Title: cfg.Report.Title},
	)

	// HTTP handlers
	analysisHandler := handler.NewAnalysisHandler(analysisService, exportService, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health and metrics endpoints outside API versioning
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(analysisHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
