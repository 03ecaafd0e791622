package score

import (
	"sync/atomic"
	"time"

	"opportunity-finder/internal/logger"
	"opportunity-finder/models"
)

// HeuristicVersion marks scores produced without any fitted model.
const HeuristicVersion = "heuristic-1.0"

// WeightSource provides the current dimension weight vector. The bandit
// optimizer implements it; tests use fixed maps.
type WeightSource interface {
	Weights() map[string]float64
}

type heuristicFn func(*models.CleanItem) float64

var heuristics = map[string]heuristicFn{
	models.DimPain:    heuristicPainScore,
	models.DimTAM:     heuristicTAMScore,
	models.DimGap:     heuristicGapScore,
	models.DimAIFit:   heuristicAIFitScore,
	models.DimSoloFit: heuristicSoloFitScore,
	models.DimRisk:    heuristicRiskScore,
}

// Engine scores clean items across all six dimensions. Each dimension uses
// its fitted regressor when one exists and falls back to the heuristic
// otherwise, so partial model sets degrade per dimension rather than
// per item.
type Engine struct {
	models  atomic.Pointer[ModelSet]
	weights WeightSource
}

func NewEngine(weights WeightSource) *Engine {
	return &Engine{weights: weights}
}

// SetModels atomically swaps in a new model set. In-flight scoring finishes
// on the set it started with.
func (e *Engine) SetModels(set *ModelSet) {
	e.models.Store(set)
}

// ModelVersion reports the active model set version.
func (e *Engine) ModelVersion() string {
	if set := e.models.Load(); set != nil {
		return set.Version
	}
	return HeuristicVersion
}

// Score computes the six dimension scores and the weighted total for one
// item, reading the weight source for this call. It never fails: any internal
// panic degrades to the neutral all-5.0 score so one bad item cannot stall
// the batch.
func (e *Engine) Score(item *models.CleanItem) (out *models.OpportunityScore, neutral bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Scoring panicked, emitting neutral score", "id", item.ID, "panic", r)
			out = neutralScore(item)
			neutral = true
		}
	}()

	return e.ScoreWith(e.weights.Weights(), item)
}

// ScoreWith scores one item against a fixed weight snapshot, so every item in
// a batch ranks under the same vector. Same never-fails contract as Score.
func (e *Engine) ScoreWith(weights map[string]float64, item *models.CleanItem) (out *models.OpportunityScore, neutral bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Scoring panicked, emitting neutral score", "id", item.ID, "panic", r)
			out = neutralScore(item)
			neutral = true
		}
	}()

	set := e.models.Load()
	features := ExtractFeatures(item)

	dims := make(map[string]float64, len(models.Dimensions))
	for _, dim := range models.Dimensions {
		dims[dim] = clampScore(e.scoreDimension(set, dim, item, features))
	}

	total := 0.0
	for dim, weight := range weights {
		total += weight * dims[dim]
	}

	return &models.OpportunityScore{
		OpportunityID: item.ID,
		SourceType:    item.SourceType,
		PainScore:     dims[models.DimPain],
		TAMScore:      dims[models.DimTAM],
		GapScore:      dims[models.DimGap],
		AIFitScore:    dims[models.DimAIFit],
		SoloFitScore:  dims[models.DimSoloFit],
		RiskScore:     dims[models.DimRisk],
		TotalScore:    clampScore(total),
		ScoredAt:      time.Now().UTC(),
		ModelVersion:  e.ModelVersion(),
	}, false
}

func (e *Engine) scoreDimension(set *ModelSet, dim string, item *models.CleanItem, features []float64) float64 {
	if set != nil {
		if reg := set.Models[dim]; reg != nil {
			pred, err := reg.Predict(features)
			if err == nil {
				return pred
			}
			logger.Warn("Model prediction failed, using heuristic", "dimension", dim, "error", err)
		}
	}
	return heuristics[dim](item)
}

func neutralScore(item *models.CleanItem) *models.OpportunityScore {
	return &models.OpportunityScore{
		OpportunityID: item.ID,
		SourceType:    item.SourceType,
		PainScore:     5.0,
		TAMScore:      5.0,
		GapScore:      5.0,
		AIFitScore:    5.0,
		SoloFitScore:  5.0,
		RiskScore:     5.0,
		TotalScore:    5.0,
		ScoredAt:      time.Now().UTC(),
		ModelVersion:  HeuristicVersion,
	}
}

func clampScore(v float64) float64 {
	return maxF(0.0, minF(10.0, v))
}
