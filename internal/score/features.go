package score

import (
	"strings"

	"opportunity-finder/models"
)

// sourceReliability weights each scraped source by historical signal quality.
// Unknown sources get the neutral 0.5.
var sourceReliability = map[string]float64{
	"reddit":     0.8,
	"hackernews": 0.9,
	"g2":         0.95,
	"linkedin":   0.85,
	"newsletter": 0.7,
}

const defaultReliability = 0.5

// SourceReliability returns the reliability weight for a source type.
func SourceReliability(sourceType string) float64 {
	if w, ok := sourceReliability[sourceType]; ok {
		return w
	}
	return defaultReliability
}

// Indicator vocabularies shared between the feature extractor and the
// heuristic scorers.
var (
	painKeywords = []string{
		"problem", "issue", "frustrating", "difficult", "struggle",
		"waste", "manual", "tedious", "time-consuming", "wish", "need", "lacking",
	}
	marketKeywords    = []string{"market", "industry", "business", "revenue", "customers"}
	gapIndicators     = []string{"missing", "lack", "need", "wish there was", "alternative to"}
	aiTerms           = []string{"ai", "artificial intelligence", "machine learning", "automation", "nlp"}
	aiSuitableTerms   = []string{"data", "analysis", "processing", "classification", "prediction", "recommendation"}
	complexIndicators = []string{"enterprise", "large scale", "complex", "team", "compliance", "regulation"}
	simpleIndicators  = []string{"simple", "tool", "app", "widget", "automation", "script"}
	riskIndicators    = []string{"legal", "regulation", "compliance", "patent", "lawsuit", "banned"}
	matureTech        = []string{"python", "javascript", "api", "cloud", "database"}
)

// FeatureDim is the length of the vectors Extract produces. Training samples
// and fitted regressors are only compatible within one feature layout.
const FeatureDim = 17

// ExtractFeatures maps a clean item onto a fixed-length numeric vector:
// text stats, entity category counts, indicator hit counts and source
// reliability.
func ExtractFeatures(item *models.CleanItem) []float64 {
	text := strings.ToLower(item.CleanedText)

	f := make([]float64, 0, FeatureDim)
	f = append(f,
		float64(len(item.CleanedText)),
		float64(len(strings.Fields(item.CleanedText))),
		float64(len(item.Keywords)),
	)
	f = append(f,
		float64(len(item.Entities.Organizations)),
		float64(len(item.Entities.Technologies)),
		float64(len(item.Entities.BusinessTerms)),
		float64(len(item.Entities.PainPoints)),
		float64(len(item.Entities.Opportunities)),
	)
	f = append(f,
		float64(countKeywordHits(item.Keywords, painKeywords)),
		float64(countKeywordHits(item.Keywords, marketKeywords)),
		float64(countTextHits(text, gapIndicators)),
		float64(countTermHits(item.Entities.Technologies, aiTerms)),
		float64(countTextHits(text, simpleIndicators)),
		float64(countTextHits(text, complexIndicators)),
		float64(countTextHits(text, riskIndicators)),
		float64(countTermHits(item.Entities.Technologies, matureTech)),
	)
	f = append(f, SourceReliability(item.SourceType))
	return f
}

// countKeywordHits counts extracted keywords containing any indicator term.
func countKeywordHits(keywords []models.Keyword, indicators []string) int {
	n := 0
	for _, kw := range keywords {
		lower := strings.ToLower(kw.Keyword)
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				n++
				break
			}
		}
	}
	return n
}

// countTextHits counts indicators present in the lowercased text.
func countTextHits(text string, indicators []string) int {
	n := 0
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			n++
		}
	}
	return n
}

// countTermHits counts entity terms containing any indicator term.
func countTermHits(terms, indicators []string) int {
	n := 0
	for _, term := range terms {
		lower := strings.ToLower(term)
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				n++
				break
			}
		}
	}
	return n
}
