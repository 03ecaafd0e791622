package models

import "time"

// Dimension names, in the order the scoring engine reports them.
const (
	DimPain    = "pain_score"
	DimTAM     = "tam_score"
	DimGap     = "gap_score"
	DimAIFit   = "ai_fit_score"
	DimSoloFit = "solo_fit_score"
	DimRisk    = "risk_score"
)

// Dimensions lists all six scoring dimensions.
var Dimensions = []string{DimPain, DimTAM, DimGap, DimAIFit, DimSoloFit, DimRisk}

// OpportunityScore holds the six dimension scores plus the weighted total for
// one clean item. All values are clamped to [0, 10].
type OpportunityScore struct {
	OpportunityID string    `bson:"_id" json:"opportunity_id"`
	SourceType    string    `bson:"source_type" json:"source_type"`
	PainScore     float64   `bson:"pain_score" json:"pain_score"`
	TAMScore      float64   `bson:"tam_score" json:"tam_score"`
	GapScore      float64   `bson:"gap_score" json:"gap_score"`
	AIFitScore    float64   `bson:"ai_fit_score" json:"ai_fit_score"`
	SoloFitScore  float64   `bson:"solo_fit_score" json:"solo_fit_score"`
	RiskScore     float64   `bson:"risk_score" json:"risk_score"`
	TotalScore    float64   `bson:"total_score" json:"total_score"`
	ScoredAt      time.Time `bson:"scored_at" json:"scored_at"`
	ModelVersion  string    `bson:"model_version" json:"model_version"`
}

// Dimension returns the named dimension score.
func (s *OpportunityScore) Dimension(name string) float64 {
	switch name {
	case DimPain:
		return s.PainScore
	case DimTAM:
		return s.TAMScore
	case DimGap:
		return s.GapScore
	case DimAIFit:
		return s.AIFitScore
	case DimSoloFit:
		return s.SoloFitScore
	case DimRisk:
		return s.RiskScore
	}
	return 0
}

// TrainingSample is one labeled example used to refit the dimension regressors.
type TrainingSample struct {
	OpportunityID string             `bson:"opportunity_id" json:"opportunity_id"`
	Features      []float64          `bson:"features" json:"features"`
	Labels        map[string]float64 `bson:"labels" json:"labels"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// OutcomeFeedback links an opportunity to a later observed outcome in [0, 1].
// Producers of this event (click-throughs, report conversions) live outside
// the pipeline.
type OutcomeFeedback struct {
	OpportunityID string    `bson:"opportunity_id" json:"opportunity_id"`
	Outcome       float64   `bson:"outcome" json:"outcome"`
	Source        string    `bson:"source" json:"source"`
	OccurredAt    time.Time `bson:"occurred_at" json:"occurred_at"`
}
