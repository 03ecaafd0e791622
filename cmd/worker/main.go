package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"opportunity-finder/internal/bandit"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/queue"
	"opportunity-finder/internal/score"
	"opportunity-finder/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(dctx)
	}()

	optimizer := bandit.NewOptimizer(mongoClient, cfg, metrics)
	if err := optimizer.Load(context.Background()); err != nil {
		log.Fatal("Failed to load bandit state:", err)
	}

	store := score.NewStore(mongoClient, cfg)
	engine := score.NewEngine(optimizer)
	trainer := score.NewTrainer(cfg, engine, store, metrics)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 20,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(store, optimizer, trainer)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskOutcomeFeedback, processor.HandleOutcomeFeedback)
	mux.HandleFunc(queue.TaskModelRetrain, processor.HandleModelRetrain)

	logger.Info("Starting feedback worker",
		"concurrency", 20,
		"redis", redisOpt.Addr)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
