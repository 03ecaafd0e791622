package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"opportunity-finder/internal/bus"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/dedup"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/normalize"
	"opportunity-finder/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("opportunity-normalizer", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	rawTopic := bus.Topic{Name: cfg.RawTopic, Partitions: cfg.BusPartitionCount}
	cleanTopic := bus.Topic{Name: cfg.CleanTopic, Partitions: cfg.BusPartitionCount}

	consumer := bus.NewConsumer(rdb, rawTopic, cfg.NormalizerGroup, consumerName(), cfg.BusPartitions)
	publisher := bus.NewPublisher(rdb, cleanTopic)
	dedupStore := dedup.NewStore(rdb, cfg.DedupTTL)

	service := normalize.NewService(cfg, consumer, publisher, dedupStore, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := service.Run(ctx); err != nil {
		log.Fatal("Normalizer failed:", err)
	}
	logger.Info("Normalizer exited")
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "normalizer"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
