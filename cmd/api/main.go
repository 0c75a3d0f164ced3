package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/samirrijal/gisportal/internal/adapters/arcgis"
	"github.com/samirrijal/gisportal/internal/adapters/authserver"
	"github.com/samirrijal/gisportal/internal/adapters/http"
	natsadapter "github.com/samirrijal/gisportal/internal/adapters/nats"
	"github.com/samirrijal/gisportal/internal/adapters/postgres"
	temporaladapter "github.com/samirrijal/gisportal/internal/adapters/temporal"
	"github.com/samirrijal/gisportal/internal/adapters/valkey"
	"github.com/samirrijal/gisportal/internal/core/ports"
	"github.com/samirrijal/gisportal/internal/core/usecases"
	"github.com/samirrijal/gisportal/internal/pkg/config"
	"github.com/samirrijal/gisportal/internal/pkg/logging"
	"github.com/samirrijal/gisportal/internal/pkg/metrics"
	"github.com/samirrijal/gisportal/internal/pkg/telemetry"
)

func main() {
	// .env is optional; real deployments set GISPORTAL_* directly.
	_ = godotenv.Load()

	cfg, err := config.Load("gisportal-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, refresh coalescing is per-instance only", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, usage events are not streamed", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	// Temporal (optional)
	var scheduler ports.RollupScheduler
	if cfg.Temporal.Enabled {
		tc, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
		if err != nil {
			slog.Warn("temporal unavailable, rollups cannot be scheduled", "error", err)
		} else {
			s := temporaladapter.NewScheduler(tc, cfg.Temporal.TaskQueue, cfg.Usage.RetentionDays)
			defer s.Close()
			scheduler = s
		}
	}

	// ArcGIS proxy
	proxy, err := arcgis.NewProxy(cfg.ArcGIS.PortalURL, cfg.ArcGIS.AllowedPrefixes,
		time.Duration(cfg.ArcGIS.Timeout)*time.Second)
	if err != nil {
		log.Fatalf("arcgis: %v", err)
	}

	// Use cases
	authSvc := usecases.NewAuthService(
		authserver.New(cfg.Auth.ServerURL, time.Duration(cfg.Auth.Timeout)*time.Second),
		cacheSvc,
		usecases.AuthOptions{
			Secret:          []byte(cfg.Auth.JWTSecret),
			RefreshSkew:     time.Duration(cfg.Auth.RefreshSkew) * time.Second,
			RefreshCacheTTL: cfg.Auth.RefreshCacheTTL,
		},
	)
	usageSvc := usecases.NewUsageService(postgres.NewUsageRepo(db), publisher, scheduler)

	deps := &http.Dependencies{
		Projections: usecases.NewProjectionService(),
		Auth:        authSvc,
		Menu:        usecases.NewMenuService(nil),
		Usage:       usageSvc,
		ArcGIS:      proxy,
		Cookies: http.CookieConfig{
			Secure: cfg.Auth.CookieSecure,
			Domain: cfg.Auth.CookieDomain,
		},
		NATS:  natsConn,
		DB:    db,
		Cache: cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // feature collections and proxied edits
		AppName:      "GIS Portal API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
