package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"onlineshop/internal/config"
	"onlineshop/internal/events"
	"onlineshop/internal/health"
	"onlineshop/internal/http/handlers"
	applog "onlineshop/internal/log"
	"onlineshop/internal/metrics"
	"onlineshop/internal/repos"
	"onlineshop/internal/services"
	"onlineshop/web"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	log := applog.Component("main")

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.WithError(err).Warnf("could not open log file %s", cfg.LogFile)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	if err := applog.Setup(cfg.LogLevel, cfg.LogFormat, out); err != nil {
		log.WithError(err).Fatal("logging setup")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if cfg.SeedDemoData {
		if err := repos.Seed(ctx, db); err != nil {
			log.WithError(err).Fatal("seed demo data")
		}
	}
	store := repos.NewStore(db)

	shopMetrics := metrics.NewShopMetrics()
	healthH := health.NewHandler(version)
	healthH.RegisterChecker("database", health.NewFuncChecker("database", store.Ping))

	var pub events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, shopMetrics)
		if err != nil {
			// The shop keeps working without notifications.
			log.WithError(err).Warn("kafka unavailable, domain events disabled")
			healthH.RegisterChecker("events", health.NewStaticChecker("events", health.StatusDegraded, err.Error()))
		} else {
			defer kp.Close()
			pub = kp
			healthH.RegisterChecker("events", health.NewStaticChecker("events", health.StatusHealthy, "kafka"))
		}
	}

	svc := services.New(store, shopMetrics, pub)

	app := handlers.NewApp(web.Engine())

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: out}))
	app.Use(helmet.New())
	app.Use(handlers.Limiter("global", cfg.RateLimitPerMinute, time.Minute))

	// ---------- Probes ----------
	app.Get("/healthz", adaptor.HTTPHandler(healthH))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(svc)
	deps.LoginLimiter = handlers.Limiter("login", 5, 10*time.Minute)
	deps.SearchLimiter = handlers.Limiter("search", 20, time.Minute)
	handlers.Mount(app, deps)
	app.Use(handlers.NotFound)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("listening")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
