package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"opportunity-finder/internal/bandit"
	"opportunity-finder/internal/bus"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/score"
	"opportunity-finder/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("opportunity-scorer", cfg.OTLPEndpoint)
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

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(dctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	optimizer := bandit.NewOptimizer(mongoClient, cfg, metrics)
	if err := optimizer.Load(ctx); err != nil {
		log.Fatal("Failed to load bandit state:", err)
	}

	engine := score.NewEngine(optimizer)
	store := score.NewStore(mongoClient, cfg)

	trainer := score.NewTrainer(cfg, engine, store, metrics)
	if err := trainer.Start(); err != nil {
		log.Fatal("Failed to start trainer:", err)
	}
	defer trainer.Stop()

	cleanTopic := bus.Topic{Name: cfg.CleanTopic, Partitions: cfg.BusPartitionCount}
	consumer := bus.NewConsumer(rdb, cleanTopic, cfg.ScorerGroup, consumerName(), cfg.BusPartitions)
	service := score.NewService(cfg, consumer, engine, store, metrics)

	if err := service.Run(ctx); err != nil {
		log.Fatal("Scorer failed:", err)
	}
	logger.Info("Scorer exited")
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "scorer"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
