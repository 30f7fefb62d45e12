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
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/metrics"
	"github.com/orangeqtym/hubitat-terraform/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Env, "weather")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init("weather")
	if cfg.MetricsPort > 0 {
		metrics.StartServer(fmt.Sprint(cfg.MetricsPort))
	}

	// A missing API key or bad coordinates are fatal before serving.
	client, err := weather.NewClient(cfg, logg)
	if err != nil {
		logg.Fatal("failed to initialize weather client", err)
	}

	broker, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		logg.Fatal("failed to connect to bus", err)
	}
	defer broker.Close()

	if status := client.CheckConnectivity(ctx); status["status"] != "online" {
		logg.Warn("weather API connectivity issue", zap.Any("status", status))
	}

	collector := weather.NewCollector(client, broker, logg)
	go collector.Run(ctx)

	r := weather.NewRouter(client, broker, logg)

	logg.Info("weather service started", zap.Int("port", cfg.WeatherPort))
	if err := r.Run(fmt.Sprintf(":%d", cfg.WeatherPort)); err != nil {
		logg.Fatal("weather server failed", err)
	}
}
