package score

import (
	"strings"

	"opportunity-finder/models"
)

// Heuristic scorers used until a trained model is available for a dimension.
// Each returns a value already inside [0, 10] and never fails.

func heuristicPainScore(item *models.CleanItem) float64 {
	score := 5.0

	painCount := countKeywordHits(item.Keywords, painKeywords)
	score += minF(3.0, float64(painCount)*0.5)

	// More reliable sources report pain more credibly.
	reliability := SourceReliability(item.SourceType)
	score *= 0.5 + reliability*0.5

	return minF(10.0, score)
}

func heuristicTAMScore(item *models.CleanItem) float64 {
	score := 5.0

	marketCount := countKeywordHits(item.Keywords, marketKeywords)
	score += minF(2.0, float64(marketCount)*0.3)

	// Technology-heavy items tend to address larger markets.
	if n := len(item.Entities.Technologies); n > 0 {
		score += minF(2.0, float64(n)*0.2)
	}

	return minF(10.0, score)
}

func heuristicGapScore(item *models.CleanItem) float64 {
	score := 5.0

	gapCount := countTextHits(strings.ToLower(item.CleanedText), gapIndicators)
	score += minF(3.0, float64(gapCount)*0.7)

	return minF(10.0, score)
}

func heuristicAIFitScore(item *models.CleanItem) float64 {
	score := 5.0

	aiRelevance := countTermHits(item.Entities.Technologies, aiTerms)
	score += minF(3.0, float64(aiRelevance)*1.0)

	suitability := countTextHits(strings.ToLower(item.CleanedText), aiSuitableTerms)
	score += minF(2.0, float64(suitability)*0.3)

	return minF(10.0, score)
}

func heuristicSoloFitScore(item *models.CleanItem) float64 {
	// Most software opportunities start solo-feasible.
	score := 7.0

	text := strings.ToLower(item.CleanedText)

	complexity := countTextHits(text, complexIndicators)
	score -= minF(4.0, float64(complexity)*0.8)

	simplicity := countTextHits(text, simpleIndicators)
	score += minF(2.0, float64(simplicity)*0.4)

	return maxF(1.0, minF(10.0, score))
}

// heuristicRiskScore reports risk where higher means riskier.
func heuristicRiskScore(item *models.CleanItem) float64 {
	score := 5.0

	riskCount := countTextHits(strings.ToLower(item.CleanedText), riskIndicators)
	score += minF(3.0, float64(riskCount)*1.0)

	maturity := countTermHits(item.Entities.Technologies, matureTech)
	score -= minF(2.0, float64(maturity)*0.3)

	return maxF(1.0, minF(10.0, score))
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
