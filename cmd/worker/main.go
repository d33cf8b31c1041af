package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meridianhr/payroll-backend-go/internal/config"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/database"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/outbox"
	"github.com/meridianhr/payroll-backend-go/internal/repository/postgresql"
)

// The worker ships committed payroll transition events from the outbox
// table to Kafka.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	if len(cfg.Kafka.Brokers) == 0 {
		fmt.Println("KAFKA_BROKERS is required for the outbox relay")
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	relay := outbox.NewRelay(
		postgresql.NewOutboxRepository(db),
		cfg.Kafka.Brokers,
		cfg.Kafka.RelayInterval,
		cfg.Kafka.RelayBatchSize,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("outbox relay started",
		slog.Any("brokers", cfg.Kafka.Brokers),
		slog.Duration("interval", cfg.Kafka.RelayInterval),
	)

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("outbox relay stopped", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("outbox relay shut down")
}
