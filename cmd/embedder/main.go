package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"opportunity-finder/internal/api"
	"opportunity-finder/internal/bus"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/embed"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/score"
	"opportunity-finder/internal/telemetry"
	"opportunity-finder/internal/vectorstore"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("opportunity-embedder", cfg.OTLPEndpoint)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := buildProviderChain(ctx, cfg, metrics)
	if err != nil {
		log.Fatal("Failed to build embedding providers:", err)
	}
	defer provider.Close()

	store, err := vectorstore.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open vector store:", err)
	}
	defer store.Close()

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(dctx)
	}()

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer taskClient.Close()

	cleanTopic := bus.Topic{Name: cfg.CleanTopic, Partitions: cfg.BusPartitionCount}
	consumer := bus.NewConsumer(rdb, cleanTopic, cfg.EmbedderGroup, consumerName(), cfg.BusPartitions)
	service := embed.NewService(cfg, consumer, provider, store, metrics)

	server := api.NewServer(cfg, store, score.NewStore(mongoClient, cfg), taskClient)
	srv := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start API server: %v", err)
		}
	}()

	if err := service.Run(ctx); err != nil {
		log.Fatal("Embedder failed:", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server forced to shut down", "error", err)
	}
	logger.Info("Embedder exited")
}

// buildProviderChain wires the configured providers: Google primary with
// OpenAI fallback when both keys exist, either one alone otherwise.
func buildProviderChain(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (embed.Provider, error) {
	var primary, fallback embed.Provider

	if cfg.GeminiAPIKey != "" {
		p, err := embed.NewGoogleProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		primary = p
	}
	if cfg.OpenAIAPIKey != "" {
		p, err := embed.NewOpenAIProvider(cfg)
		if err != nil {
			return nil, err
		}
		if primary == nil {
			primary = p
		} else {
			fallback = p
		}
	}
	if primary == nil {
		return nil, fmt.Errorf("no embedding provider configured: set GEMINI_API_KEY or OPENAI_API_KEY")
	}

	return embed.NewChain(primary, fallback, metrics), nil
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "embedder"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
