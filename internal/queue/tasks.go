package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"opportunity-finder/internal/bandit"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/score"
	"opportunity-finder/models"
)

const (
	TaskOutcomeFeedback = "feedback:outcome"
	TaskModelRetrain    = "model:retrain"
)

// Task creators
func NewOutcomeFeedbackTask(fb *models.OutcomeFeedback) (*asynq.Task, error) {
	payload, err := json.Marshal(fb)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskOutcomeFeedback,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Queue("critical"),
	), nil
}

func NewModelRetrainTask() (*asynq.Task, error) {
	return asynq.NewTask(
		TaskModelRetrain,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor handles feedback and retraining tasks.
type TaskProcessor struct {
	store     *score.Store
	optimizer *bandit.Optimizer
	trainer   *score.Trainer
}

func NewTaskProcessor(store *score.Store, optimizer *bandit.Optimizer, trainer *score.Trainer) *TaskProcessor {
	return &TaskProcessor{
		store:     store,
		optimizer: optimizer,
		trainer:   trainer,
	}
}

// HandleOutcomeFeedback records the feedback event, updates the bandit
// weights and labels the item's training sample.
func (p *TaskProcessor) HandleOutcomeFeedback(ctx context.Context, t *asynq.Task) error {
	var fb models.OutcomeFeedback
	if err := json.Unmarshal(t.Payload(), &fb); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}
	if fb.OpportunityID == "" || fb.Outcome < 0 || fb.Outcome > 1 {
		logger.Warn("Discarding invalid outcome feedback",
			"opportunity_id", fb.OpportunityID, "outcome", fb.Outcome)
		return asynq.SkipRetry
	}
	if fb.OccurredAt.IsZero() {
		fb.OccurredAt = time.Now().UTC()
	}

	if err := p.store.SaveFeedback(ctx, &fb); err != nil {
		return err
	}

	// The score may not be persisted yet if feedback raced the scorer;
	// retrying later closes the gap.
	sc, err := p.store.GetScore(ctx, fb.OpportunityID)
	if err != nil {
		return err
	}
	if sc == nil {
		return fmt.Errorf("no score for opportunity %s yet", fb.OpportunityID)
	}

	if err := p.optimizer.Update(ctx, sc, fb.Outcome); err != nil {
		return err
	}

	matched, err := p.store.SetSampleLabels(ctx, fb.OpportunityID, feedbackLabels(sc, fb.Outcome))
	if err != nil {
		return err
	}
	if !matched {
		logger.Warn("No training sample to label", "opportunity_id", fb.OpportunityID)
	}

	logger.Info("Outcome feedback applied",
		"opportunity_id", fb.OpportunityID, "outcome", fb.Outcome, "source", fb.Source)
	return nil
}

// HandleModelRetrain triggers one retraining pass outside the hourly
// schedule.
func (p *TaskProcessor) HandleModelRetrain(ctx context.Context, t *asynq.Task) error {
	logger.Info("Manual model retrain requested")
	return p.trainer.Retrain(ctx)
}

// feedbackLabels turns an observed outcome into per-dimension regression
// labels. A good outcome shifts every dimension label up from the score it
// was ranked with; risk shifts the opposite way.
func feedbackLabels(sc *models.OpportunityScore, outcome float64) map[string]float64 {
	shift := (outcome - 0.5) * 4.0

	labels := make(map[string]float64, len(models.Dimensions))
	for _, dim := range models.Dimensions {
		v := sc.Dimension(dim)
		if dim == models.DimRisk {
			v -= shift
		} else {
			v += shift
		}
		if v < 0 {
			v = 0
		}
		if v > 10 {
			v = 10
		}
		labels[dim] = v
	}
	return labels
}
