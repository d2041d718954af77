package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"onlineshop/internal/config"
	"onlineshop/internal/console"
	"onlineshop/internal/events"
	applog "onlineshop/internal/log"
	"onlineshop/internal/metrics"
	"onlineshop/internal/repos"
	"onlineshop/internal/services"
)

func main() {
	cfg := config.Load()
	log := applog.Component("shopctl")

	// Keep stdout for the menu.
	out := os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.WithError(err).Warnf("could not open log file %s", cfg.LogFile)
		} else {
			defer f.Close()
			out = f
		}
	}
	level := cfg.LogLevel
	if cfg.LogFile == "" && level == "info" {
		level = "warn"
	}
	if err := applog.Setup(level, cfg.LogFormat, out); err != nil {
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

	shopMetrics := metrics.NewShopMetrics()
	var pub events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, shopMetrics)
		if err != nil {
			log.WithError(err).Warn("kafka unavailable, domain events disabled")
		} else {
			defer kp.Close()
			pub = kp
		}
	}

	svc := services.New(repos.NewStore(db), shopMetrics, pub)
	if err := console.New(svc, os.Stdin, os.Stdout).Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("console")
	}
}
