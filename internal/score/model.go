package score

import (
	"fmt"

	"opportunity-finder/models"
)

// Regressor is a linear model fitted with ridge regularization. It predicts
// one scoring dimension from the shared feature vector.
type Regressor struct {
	Weights []float64 `bson:"weights" json:"weights"`
	Bias    float64   `bson:"bias" json:"bias"`
}

// Predict returns the raw linear prediction; callers clamp to score range.
func (r *Regressor) Predict(features []float64) (float64, error) {
	if len(features) != len(r.Weights) {
		return 0, fmt.Errorf("feature length %d does not match model width %d", len(features), len(r.Weights))
	}
	out := r.Bias
	for i, w := range r.Weights {
		out += w * features[i]
	}
	return out, nil
}

// ModelSet bundles one fitted regressor per scoring dimension. A nil entry
// means the dimension still scores heuristically.
type ModelSet struct {
	Version string                `bson:"version" json:"version"`
	Models  map[string]*Regressor `bson:"models" json:"models"`
}

// ridgeLambda keeps the normal equations well conditioned on small sample
// counts.
const ridgeLambda = 1.0

// FitModelSet fits one ridge regressor per dimension from labeled samples.
// Samples missing a dimension label are skipped for that dimension.
func FitModelSet(samples []models.TrainingSample, version string) (*ModelSet, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no training samples")
	}

	set := &ModelSet{Version: version, Models: make(map[string]*Regressor, len(models.Dimensions))}
	for _, dim := range models.Dimensions {
		var (
			X [][]float64
			y []float64
		)
		for i := range samples {
			label, ok := samples[i].Labels[dim]
			if !ok || len(samples[i].Features) != FeatureDim {
				continue
			}
			X = append(X, samples[i].Features)
			y = append(y, label)
		}
		if len(X) == 0 {
			continue
		}
		reg, err := fitRidge(X, y)
		if err != nil {
			return nil, fmt.Errorf("fit %s: %w", dim, err)
		}
		set.Models[dim] = reg
	}

	if len(set.Models) == 0 {
		return nil, fmt.Errorf("no dimension had labeled samples")
	}
	return set, nil
}

// fitRidge solves (XᵀX + λI)w = Xᵀy with a bias column appended to X.
func fitRidge(X [][]float64, y []float64) (*Regressor, error) {
	n := len(X)
	d := len(X[0]) + 1

	// A = XᵀX + λI, b = Xᵀy over the bias-augmented design matrix.
	A := make([][]float64, d)
	for i := range A {
		A[i] = make([]float64, d)
		A[i][i] = ridgeLambda
	}
	b := make([]float64, d)

	row := make([]float64, d)
	for k := 0; k < n; k++ {
		copy(row, X[k])
		row[d-1] = 1.0
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				A[i][j] += row[i] * row[j]
			}
			b[i] += row[i] * y[k]
		}
	}

	w, err := solveLinear(A, b)
	if err != nil {
		return nil, err
	}
	return &Regressor{Weights: w[:d-1], Bias: w[d-1]}, nil
}

// solveLinear solves Aw = b by Gaussian elimination with partial pivoting.
// A and b are consumed.
func solveLinear(A [][]float64, b []float64) ([]float64, error) {
	d := len(A)
	for col := 0; col < d; col++ {
		pivot := col
		for r := col + 1; r < d; r++ {
			if absF(A[r][col]) > absF(A[pivot][col]) {
				pivot = r
			}
		}
		if absF(A[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		A[col], A[pivot] = A[pivot], A[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < d; r++ {
			factor := A[r][col] / A[col][col]
			for c := col; c < d; c++ {
				A[r][c] -= factor * A[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	w := make([]float64, d)
	for r := d - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < d; c++ {
			sum -= A[r][c] * w[c]
		}
		w[r] = sum / A[r][r]
	}
	return w, nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
