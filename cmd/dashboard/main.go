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
	"github.com/orangeqtym/hubitat-terraform/internal/dashboard"
	"github.com/orangeqtym/hubitat-terraform/internal/health"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/metrics"
	"github.com/orangeqtym/hubitat-terraform/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Env, "dashboard")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown := telemetry.InitTracer("dashboard")
	defer shutdown(ctx)

	metrics.Init("dashboard")
	if cfg.MetricsPort > 0 {
		metrics.StartServer(fmt.Sprint(cfg.MetricsPort))
	}

	// The dashboard stays up without the bus; health updates just stop
	// flowing until it comes back.
	broker, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		logg.Error("failed to connect to bus, continuing without it", err)
		broker = nil
	} else {
		defer broker.Close()
	}

	services := []health.ServiceDescriptor{
		{Name: "hubitat", DisplayName: "Hubitat Hub Control", Addr: fmt.Sprintf("localhost:%d", cfg.HubitatPort)},
		{Name: "weather", DisplayName: "Weather Data Service", Addr: fmt.Sprintf("localhost:%d", cfg.WeatherPort)},
		{Name: "govee", DisplayName: "Govee Sensor Service", Addr: fmt.Sprintf("localhost:%d", cfg.GoveePort)},
		{Name: "database", DisplayName: "Database Storage Service", Addr: fmt.Sprintf("localhost:%d", cfg.DatabasePort)},
	}

	var pub health.Publisher
	if broker != nil {
		pub = broker
	}
	agg := health.NewAggregator(services, health.NewProber(health.DefaultProbeTimeout), pub, logg)
	go agg.Run(ctx)

	svc := dashboard.NewService(agg, broker, fmt.Sprintf("localhost:%d", cfg.DatabasePort), logg)
	r := dashboard.NewRouter(svc)

	logg.Info("dashboard service started", zap.Int("port", cfg.DashboardPort))
	if err := r.Run(fmt.Sprintf(":%d", cfg.DashboardPort)); err != nil {
		logg.Fatal("dashboard server failed", err)
	}
}
