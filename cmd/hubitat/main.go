package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/config"
	"github.com/orangeqtym/hubitat-terraform/internal/hubitat"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Env, "hubitat")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init("hubitat")
	if cfg.MetricsPort > 0 {
		metrics.StartServer(fmt.Sprint(cfg.MetricsPort))
	}

	// Missing hub credentials are fatal before any traffic is served.
	client, err := hubitat.NewClient(cfg)
	if err != nil {
		logg.Fatal("failed to initialize hubitat client", err)
	}

	broker, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		logg.Fatal("failed to connect to bus", err)
	}
	defer broker.Close()

	if status := client.CheckConnectivity(ctx); status["status"] != "online" {
		logg.Warn("hubitat hub connectivity issue", zap.Any("status", status))
	}

	collector := hubitat.NewCollector(client, broker, logg)
	go collector.Run(ctx)

	r := hubitat.NewRouter(client, collector, broker, logg)

	logg.Info("hubitat service started", zap.Int("port", cfg.HubitatPort))
	if err := r.Run(fmt.Sprintf(":%d", cfg.HubitatPort)); err != nil {
		logg.Fatal("hubitat server failed", err)
	}
}
