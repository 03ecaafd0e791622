// Package bandit maintains the dimension weight vector behind the total
// score, adjusting it online from outcome feedback with an epsilon-greedy
// policy.
package bandit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/telemetry"
	"opportunity-finder/models"
)

// InitialWeights is the hand-tuned starting vector. Risk carries a negative
// weight: riskier opportunities score lower overall.
var InitialWeights = map[string]float64{
	models.DimPain:    0.25,
	models.DimTAM:     0.20,
	models.DimGap:     0.20,
	models.DimAIFit:   0.15,
	models.DimSoloFit: 0.15,
	models.DimRisk:    -0.05,
}

const (
	// learnRate scales exploitation steps toward the observed outcome.
	learnRate = 0.05
	// exploreNoise bounds the random perturbation of one weight.
	exploreNoise = 0.02

	weightMin = 0.01
	weightMax = 0.60

	stateDocID = "current"
)

// state is the full optimizer state, persisted as one Mongo document.
type state struct {
	ID      string             `bson:"_id"`
	Weights map[string]float64 `bson:"weights"`
	Epsilon float64            `bson:"epsilon"`
	Updates int64              `bson:"updates"`
	Updated time.Time          `bson:"updated_at"`
}

// Optimizer adjusts dimension weights from outcome feedback. Updates are
// serialized under the mutex; every update swaps in a fresh whole-vector
// snapshot so readers never lock and never see a partial vector.
type Optimizer struct {
	cfg     *config.Config
	coll    *mongo.Collection
	metrics *telemetry.Metrics

	current atomic.Pointer[map[string]float64]

	mu      sync.Mutex
	st      state
	rng     *rand.Rand
	posMass float64
}

func NewOptimizer(client *mongo.Client, cfg *config.Config, metrics *telemetry.Metrics) *Optimizer {
	posMass := 0.0
	for _, w := range InitialWeights {
		if w > 0 {
			posMass += w
		}
	}

	o := &Optimizer{
		cfg:     cfg,
		coll:    client.Database(cfg.DBName).Collection("bandit_state"),
		metrics: metrics,
		st: state{
			ID:      stateDocID,
			Weights: cloneWeights(InitialWeights),
			Epsilon: cfg.BanditExplorationRate,
		},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		posMass: posMass,
	}
	o.publishLocked()
	return o
}

// Load restores persisted state. A missing document leaves the initial
// weights in place.
func (o *Optimizer) Load(ctx context.Context) error {
	var st state
	err := o.coll.FindOne(ctx, bson.M{"_id": stateDocID}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		logger.Info("No persisted bandit state, starting from initial weights")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load bandit state: %w", err)
	}

	// A weight vector from an older dimension layout cannot be trusted.
	for _, dim := range models.Dimensions {
		if _, ok := st.Weights[dim]; !ok {
			logger.Warn("Persisted bandit state misses dimension, resetting", "dimension", dim)
			return nil
		}
	}

	o.mu.Lock()
	o.st = st
	o.publishLocked()
	o.mu.Unlock()
	logger.Info("Bandit state restored", "updates", st.Updates, "epsilon", st.Epsilon)
	return nil
}

// publishLocked swaps the read snapshot. Callers hold mu (or own the
// Optimizer exclusively, as during construction).
func (o *Optimizer) publishLocked() {
	w := cloneWeights(o.st.Weights)
	o.current.Store(&w)
}

// Weights returns a copy of the current weight vector. The read is lock-free:
// it dereferences the snapshot swapped in by the last update.
func (o *Optimizer) Weights() map[string]float64 {
	return cloneWeights(*o.current.Load())
}

// Epsilon returns the current exploration rate.
func (o *Optimizer) Epsilon() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.Epsilon
}

// Update applies one outcome observation to the weight vector and persists
// the new state. outcome is in [0, 1]; score holds the dimension values the
// opportunity was ranked with.
func (o *Optimizer) Update(ctx context.Context, score *models.OpportunityScore, outcome float64) error {
	if outcome < 0 || outcome > 1 {
		return fmt.Errorf("outcome %v outside [0, 1]", outcome)
	}

	explored, snapshot := o.step(score, outcome)
	o.metrics.RecordBanditUpdate(explored)

	_, err := o.coll.ReplaceOne(ctx,
		bson.M{"_id": stateDocID},
		snapshot,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("persist bandit state: %w", err)
	}

	logger.Debug("Bandit weights updated",
		"explored", explored, "outcome", outcome, "epsilon", snapshot.Epsilon)
	return nil
}

// step applies one observation to the in-memory state and returns whether
// it explored plus a snapshot for persistence.
func (o *Optimizer) step(score *models.OpportunityScore, outcome float64) (bool, state) {
	o.mu.Lock()
	defer o.mu.Unlock()

	explored := o.rng.Float64() < o.st.Epsilon
	if explored {
		dim := models.Dimensions[o.rng.Intn(len(models.Dimensions))]
		o.st.Weights[dim] += (o.rng.Float64()*2 - 1) * exploreNoise
	} else {
		// Move each weight toward the vector that would have predicted the
		// observed outcome for this score.
		predicted := score.TotalScore / 10.0
		err := outcome - predicted
		for _, dim := range models.Dimensions {
			o.st.Weights[dim] += learnRate * err * score.Dimension(dim) / 10.0
		}
	}

	o.clampLocked()
	o.renormalizeLocked()
	// Renormalization can push a weight past its bound; bounds win.
	o.clampLocked()

	o.st.Epsilon *= o.cfg.BanditDecayRate
	if o.st.Epsilon < o.cfg.BanditEpsilonFloor {
		o.st.Epsilon = o.cfg.BanditEpsilonFloor
	}
	o.st.Updates++
	o.st.Updated = time.Now().UTC()
	o.publishLocked()

	snapshot := o.st
	snapshot.Weights = cloneWeights(o.st.Weights)
	return explored, snapshot
}

// clampLocked bounds every weight. Positive dimensions stay in
// [weightMin, weightMax]; risk stays in [-weightMax, -weightMin].
func (o *Optimizer) clampLocked() {
	for _, dim := range models.Dimensions {
		w := o.st.Weights[dim]
		if dim == models.DimRisk {
			if w > -weightMin {
				w = -weightMin
			}
			if w < -weightMax {
				w = -weightMax
			}
		} else {
			if w < weightMin {
				w = weightMin
			}
			if w > weightMax {
				w = weightMax
			}
		}
		o.st.Weights[dim] = w
	}
}

// renormalizeLocked rescales the positive weights so their L1 mass stays at
// the initial mass; otherwise repeated updates inflate or deflate every
// total score.
func (o *Optimizer) renormalizeLocked() {
	sum := 0.0
	for _, dim := range models.Dimensions {
		if dim != models.DimRisk {
			sum += o.st.Weights[dim]
		}
	}
	if sum <= 0 {
		return
	}
	factor := o.posMass / sum
	for _, dim := range models.Dimensions {
		if dim != models.DimRisk {
			o.st.Weights[dim] *= factor
		}
	}
}

func cloneWeights(w map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
