package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Redis (bus + dedup store)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Mongo (scores, training samples, bandit state)
	MongoURI string
	DBName   string

	// Postgres (pgvector backend)
	DatabaseURL string

	// Bus topology
	RawTopic          string
	CleanTopic        string
	BusPartitionCount int
	BusPartitions     []int
	NormalizerGroup   string
	EmbedderGroup     string
	ScorerGroup       string
	BatchSize         int
	BlockTimeout      time.Duration

	// Normalizer
	MinTextLength      int
	MaxTextLength      int
	MaxKeywords        int
	SupportedLanguages []string
	DedupTTL           time.Duration
	ItemMaxRetries     int

	// Embedding providers
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	OpenAIAPIKey          string
	OpenAIEmbeddingsModel string
	EmbedMinTextLength    int
	ProviderRPM           int
	ProviderBatchSize     int
	ProviderMaxRetries    int
	ProviderMaxBackoff    time.Duration

	// Vector store
	VectorBackend    string
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	VectorDim        int

	// Scoring / retraining
	ModelRetrainThreshold int
	RetrainInterval       time.Duration

	// Bandit
	BanditExplorationRate float64
	BanditDecayRate       float64
	BanditEpsilonFloor    float64

	// Ops API
	APIPort     string
	CORSOrigins []string

	// Telemetry / logging
	OTLPEndpoint string
	LogLevel     string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/opportunity_finder"),
		DBName:   getEnv("DB_NAME", "opportunity_finder"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RawTopic:          getEnv("RAW_TOPIC", "raw_items"),
		CleanTopic:        getEnv("CLEAN_TOPIC", "clean_opportunities"),
		BusPartitionCount: getEnvInt("BUS_PARTITION_COUNT", 4),
		BusPartitions:     getEnvIntSlice("BUS_PARTITIONS", nil),
		NormalizerGroup:   getEnv("NORMALIZER_GROUP", "processing_service"),
		EmbedderGroup:     getEnv("EMBEDDER_GROUP", "embedding_service"),
		ScorerGroup:       getEnv("SCORER_GROUP", "scoring_service"),
		BatchSize:         getEnvInt("BATCH_SIZE", 50),
		BlockTimeout:      getEnvDuration("BUS_BLOCK_TIMEOUT", 5*time.Second),

		MinTextLength:      getEnvInt("MIN_TEXT_LENGTH", 20),
		MaxTextLength:      getEnvInt("MAX_TEXT_LENGTH", 8000),
		MaxKeywords:        getEnvInt("MAX_KEYWORDS", 20),
		SupportedLanguages: strings.Split(getEnv("SUPPORTED_LANGUAGES", "en"), ","),
		DedupTTL:           getEnvDuration("DEDUP_TTL", 7*24*time.Hour),
		ItemMaxRetries:     getEnvInt("ITEM_MAX_RETRIES", 3),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingsModel: getEnv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small"),
		EmbedMinTextLength:    getEnvInt("EMBED_MIN_TEXT_LENGTH", 10),
		ProviderRPM:           getEnvInt("PROVIDER_RPM", 60),
		ProviderBatchSize:     getEnvInt("PROVIDER_BATCH_SIZE", 100),
		ProviderMaxRetries:    getEnvInt("PROVIDER_MAX_RETRIES", 3),
		ProviderMaxBackoff:    getEnvDuration("PROVIDER_MAX_BACKOFF", 60*time.Second),

		VectorBackend:    getEnv("VECTOR_BACKEND", "qdrant"),
		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "opportunities"),
		VectorDim:        getEnvInt("VECTOR_DIM", 768),

		ModelRetrainThreshold: getEnvInt("MODEL_RETRAIN_THRESHOLD", 1000),
		RetrainInterval:       getEnvDuration("RETRAIN_INTERVAL", time.Hour),

		BanditExplorationRate: getEnvFloat64("BANDIT_EXPLORATION_RATE", 0.1),
		BanditDecayRate:       getEnvFloat64("BANDIT_DECAY_RATE", 0.99),
		BanditEpsilonFloor:    getEnvFloat64("BANDIT_EPSILON_FLOOR", 0.01),

		APIPort:     getEnv("API_PORT", "8080"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.BusPartitionCount <= 0 {
		return nil, fmt.Errorf("BUS_PARTITION_COUNT must be positive, got %d", cfg.BusPartitionCount)
	}

	// Default: own every partition (single-instance deployments).
	if len(cfg.BusPartitions) == 0 {
		cfg.BusPartitions = make([]int, cfg.BusPartitionCount)
		for i := range cfg.BusPartitions {
			cfg.BusPartitions[i] = i
		}
	}

	for _, p := range cfg.BusPartitions {
		if p < 0 || p >= cfg.BusPartitionCount {
			return nil, fmt.Errorf("BUS_PARTITIONS entry %d out of range [0,%d)", p, cfg.BusPartitionCount)
		}
	}

	switch cfg.VectorBackend {
	case "qdrant", "pgvector", "memory":
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND: %s", cfg.VectorBackend)
	}

	if cfg.VectorBackend == "pgvector" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the pgvector backend - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvIntSlice(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}
