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
	"github.com/orangeqtym/hubitat-terraform/internal/govee"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Env, "govee")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init("govee")
	if cfg.MetricsPort > 0 {
		metrics.StartServer(fmt.Sprint(cfg.MetricsPort))
	}

	// Missing Govee credentials are fatal before any traffic is served.
	client, err := govee.NewClient(cfg, logg)
	if err != nil {
		logg.Fatal("failed to initialize govee client", err)
	}

	broker, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		logg.Fatal("failed to connect to bus", err)
	}
	defer broker.Close()

	if status := client.CheckConnectivity(ctx); status["status"] != "online" {
		logg.Warn("govee device connectivity issue", zap.Any("status", status))
	}

	r := govee.NewRouter(client, broker, logg)

	logg.Info("govee service started", zap.Int("port", cfg.GoveePort))
	if err := r.Run(fmt.Sprintf(":%d", cfg.GoveePort)); err != nil {
		logg.Fatal("govee server failed", err)
	}
}
