package main

import (
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/config"
	"github.com/orangeqtym/hubitat-terraform/internal/database"
	"github.com/orangeqtym/hubitat-terraform/internal/ingest"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/metrics"
	"github.com/orangeqtym/hubitat-terraform/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Env, "database")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	metrics.Init("database")
	if cfg.MetricsPort > 0 {
		metrics.StartServer(fmt.Sprint(cfg.MetricsPort))
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logg.Fatal("failed to initialize database", err)
	}
	defer st.Close()
	logg.Info("database initialized", zap.String("path", cfg.DBPath))

	broker, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		logg.Fatal("failed to connect to bus", err)
	}
	defer broker.Close()

	// The auto-ingest subscriber runs for the whole process lifetime.
	sub := ingest.NewSubscriber(st, logg)
	if err := sub.Start(broker); err != nil {
		logg.Fatal("failed to start auto-ingest subscriber", err)
	}

	r := database.NewRouter(st, broker, logg)

	logg.Info("database service started", zap.Int("port", cfg.DatabasePort))
	if err := r.Run(fmt.Sprintf(":%d", cfg.DatabasePort)); err != nil {
		logg.Fatal("database server failed", err)
	}
}
