// Command seed publishes synthetic raw items onto the bus for local runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"opportunity-finder/internal/bus"
	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/models"
)

var samples = []struct {
	sourceType string
	data       map[string]interface{}
}{
	{
		sourceType: "reddit",
		data: map[string]interface{}{
			"title":    "Struggling with invoice reconciliation",
			"selftext": "Our small accounting team wastes hours every week matching invoices to payments by hand. It is a frustrating, error prone process and we wish there was a simple automation tool that could handle the data processing for us.",
		},
	},
	{
		sourceType: "hackernews",
		data: map[string]interface{}{
			"title": "Ask HN: Why is there no good API for freight quotes?",
			"text":  "Every logistics business I talk to struggles with the same problem. Carriers email spreadsheets around and nobody offers a clean API. Feels like a real gap in the market for a solo developer with machine learning experience.",
		},
	},
	{
		sourceType: "g2",
		data: map[string]interface{}{
			"review_text": "The product is fine for enterprise teams but far too complex for a small business. We just need a simple tool for customer analysis, not a compliance suite. Support keeps pushing expensive add-ons.",
		},
	},
	{
		sourceType: "linkedin",
		data: map[string]interface{}{
			"title":       "Hiring ops analysts to copy data between systems",
			"description": "We keep hiring people whose whole job is moving revenue data between our CRM and billing platform. There has to be an automation opportunity here for an AI startup.",
		},
	},
	{
		sourceType: "newsletter",
		data: map[string]interface{}{
			"title":   "The rise of niche SaaS",
			"summary": "Small vertical software businesses keep finding underserved markets.",
			"content": "This week we look at founders building simple tools for industries the big platforms ignore. The common thread is a painful manual process, a clear market need and no good alternative to spreadsheets.",
		},
	},
}

func main() {
	count := flag.Int("count", 25, "number of raw items to publish")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	rawTopic := bus.Topic{Name: cfg.RawTopic, Partitions: cfg.BusPartitionCount}
	publisher := bus.NewPublisher(rdb, rawTopic)

	ctx := context.Background()
	for i := 0; i < *count; i++ {
		sample := samples[i%len(samples)]
		item := models.RawItem{
			ID:         fmt.Sprintf("%s_%s", sample.sourceType, uuid.NewString()),
			SourceType: sample.sourceType,
			ScrapedAt:  time.Now().UTC(),
			RawData:    sample.data,
		}
		if err := publisher.Publish(ctx, item.SourceType, item); err != nil {
			log.Fatal("Publish failed:", err)
		}
	}

	logger.Info("Seeded raw items", "count", *count, "topic", cfg.RawTopic)
}
