package score

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/telemetry"
)

// maxTrainingSamples bounds one training pass; the most recent labeled
// samples win.
const maxTrainingSamples = 50000

// Trainer periodically refits the dimension regressors from labeled training
// samples and swaps them into the engine.
type Trainer struct {
	cfg       *config.Config
	engine    *Engine
	store     *Store
	metrics   *telemetry.Metrics
	scheduler *gocron.Scheduler
}

func NewTrainer(cfg *config.Config, engine *Engine, store *Store, metrics *telemetry.Metrics) *Trainer {
	return &Trainer{
		cfg:       cfg,
		engine:    engine,
		store:     store,
		metrics:   metrics,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start restores the last persisted model set, schedules the periodic
// retraining job and runs one immediate pass so a restart picks up
// accumulated samples without waiting a full interval.
func (t *Trainer) Start() error {
	if set, err := t.store.LatestModelSet(context.Background()); err != nil {
		logger.Error("Could not restore persisted models, starting heuristic", "error", err)
	} else if set != nil {
		t.engine.SetModels(set)
		logger.Info("Restored persisted model set", "version", set.Version)
	}

	_, err := t.scheduler.Every(t.cfg.RetrainInterval).Tag("model-retrain").Do(func() {
		if err := t.Retrain(context.Background()); err != nil {
			logger.Error("Model retraining failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule retraining: %w", err)
	}

	t.scheduler.StartAsync()

	go func() {
		if err := t.Retrain(context.Background()); err != nil {
			logger.Error("Initial model training failed", "error", err)
		}
	}()
	return nil
}

func (t *Trainer) Stop() {
	t.scheduler.Stop()
}

// Retrain refits the model set when enough labeled samples exist. Below the
// threshold it leaves the current models (or heuristics) in place.
func (t *Trainer) Retrain(ctx context.Context) error {
	count, err := t.store.LabeledSampleCount(ctx)
	if err != nil {
		return err
	}
	if count < int64(t.cfg.ModelRetrainThreshold) {
		logger.Info("Insufficient training data, skipping retraining",
			"samples", count, "threshold", t.cfg.ModelRetrainThreshold)
		return nil
	}

	samples, err := t.store.LabeledSamples(ctx, maxTrainingSamples)
	if err != nil {
		return err
	}

	version := fmt.Sprintf("ridge-%s", time.Now().UTC().Format("20060102T150405Z"))
	set, err := FitModelSet(samples, version)
	if err != nil {
		return fmt.Errorf("fit model set: %w", err)
	}

	if err := t.store.SaveModelSet(ctx, set); err != nil {
		logger.Error("Could not persist model set", "version", version, "error", err)
	}

	t.engine.SetModels(set)
	t.metrics.RecordRetrain(len(samples))
	logger.Info("Model set retrained and swapped in",
		"version", version, "samples", len(samples), "dimensions", len(set.Models))
	return nil
}
