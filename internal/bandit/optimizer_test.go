package bandit

import (
	"math"
	"math/rand"
	"testing"

	"opportunity-finder/internal/config"
	"opportunity-finder/models"
)

func testOptimizer() *Optimizer {
	cfg := &config.Config{
		BanditExplorationRate: 0.1,
		BanditDecayRate:       0.99,
		BanditEpsilonFloor:    0.01,
	}

	posMass := 0.0
	for _, w := range InitialWeights {
		if w > 0 {
			posMass += w
		}
	}

	o := &Optimizer{
		cfg: cfg,
		st: state{
			ID:      stateDocID,
			Weights: cloneWeights(InitialWeights),
			Epsilon: cfg.BanditExplorationRate,
		},
		rng:     rand.New(rand.NewSource(42)),
		posMass: posMass,
	}
	o.publishLocked()
	return o
}

func sampleScore(total float64) *models.OpportunityScore {
	return &models.OpportunityScore{
		OpportunityID: "x",
		PainScore:     7,
		TAMScore:      6,
		GapScore:      5,
		AIFitScore:    8,
		SoloFitScore:  6,
		RiskScore:     4,
		TotalScore:    total,
	}
}

func TestWeightsStayBoundedAcrossManyUpdates(t *testing.T) {
	o := testOptimizer()

	for i := 0; i < 500; i++ {
		outcome := float64(i%2) // alternate strong and weak outcomes
		o.step(sampleScore(3.0), outcome)

		w := o.Weights()
		for _, dim := range models.Dimensions {
			v := w[dim]
			if dim == models.DimRisk {
				if v > -weightMin || v < -weightMax {
					t.Fatalf("update %d: risk weight %v outside [%v, %v]", i, v, -weightMax, -weightMin)
				}
			} else if v < weightMin || v > weightMax {
				t.Fatalf("update %d: %s weight %v outside [%v, %v]", i, dim, v, weightMin, weightMax)
			}
		}
	}
}

func TestPositiveMassIsPreserved(t *testing.T) {
	o := testOptimizer()

	for i := 0; i < 100; i++ {
		o.step(sampleScore(2.0), 1.0)
	}

	sum := 0.0
	for dim, v := range o.Weights() {
		if dim != models.DimRisk {
			sum += v
		}
	}
	// Bound clamping after renormalization can leave a small residual.
	if math.Abs(sum-o.posMass) > 0.01 {
		t.Errorf("positive mass drifted: got %v, want %v", sum, o.posMass)
	}
}

func TestEpsilonDecaysToFloor(t *testing.T) {
	o := testOptimizer()

	prev := o.Epsilon()
	for i := 0; i < 5; i++ {
		o.step(sampleScore(5.0), 0.5)
		cur := o.Epsilon()
		if cur >= prev {
			t.Fatalf("epsilon did not decay: %v -> %v", prev, cur)
		}
		prev = cur
	}

	for i := 0; i < 1000; i++ {
		o.step(sampleScore(5.0), 0.5)
	}
	if got := o.Epsilon(); got != o.cfg.BanditEpsilonFloor {
		t.Errorf("epsilon %v, want floor %v", got, o.cfg.BanditEpsilonFloor)
	}
}

func TestGoodOutcomesFavorHighDimensions(t *testing.T) {
	o := testOptimizer()

	// Pain is the strongest dimension of this score; repeated good outcomes
	// on a low total must push weight toward it.
	sc := &models.OpportunityScore{
		PainScore:  9,
		TAMScore:   1,
		GapScore:   1,
		AIFitScore: 1, SoloFitScore: 1, RiskScore: 1,
		TotalScore: 2.0,
	}
	before := o.Weights()[models.DimPain]
	for i := 0; i < 200; i++ {
		o.step(sc, 1.0)
	}
	after := o.Weights()[models.DimPain]
	if after <= before {
		t.Errorf("pain weight did not grow under good outcomes: %v -> %v", before, after)
	}
}

func TestUpdateRejectsOutOfRangeOutcome(t *testing.T) {
	o := testOptimizer()

	if err := o.Update(nil, sampleScore(5.0), 1.5); err == nil {
		t.Fatal("expected error for outcome above 1")
	}
	if err := o.Update(nil, sampleScore(5.0), -0.1); err == nil {
		t.Fatal("expected error for negative outcome")
	}
}

func TestWeightsSnapshotRefreshesAfterUpdate(t *testing.T) {
	o := testOptimizer()
	o.st.Epsilon = 0 // force exploitation

	before := o.Weights()
	o.step(sampleScore(2.0), 1.0)
	after := o.Weights()

	changed := false
	for _, dim := range models.Dimensions {
		if after[dim] != before[dim] {
			changed = true
		}
	}
	if !changed {
		t.Fatal("read snapshot not swapped after an update")
	}
}

func TestWeightsReturnsCopy(t *testing.T) {
	o := testOptimizer()

	w := o.Weights()
	w[models.DimPain] = 99

	if o.Weights()[models.DimPain] == 99 {
		t.Fatal("Weights leaked internal state")
	}
}
