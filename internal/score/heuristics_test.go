package score

import (
	"strings"
	"testing"

	"opportunity-finder/internal/config"
	"opportunity-finder/internal/normalize"
	"opportunity-finder/models"
)

func keywordsOf(words ...string) []models.Keyword {
	out := make([]models.Keyword, len(words))
	for i, w := range words {
		out[i] = models.Keyword{Keyword: w, Frequency: 1, RelevanceScore: 0.5, FinalScore: 0.5}
	}
	return out
}

func TestHeuristicPainScoreRespondsToPainKeywords(t *testing.T) {
	painful := &models.CleanItem{
		SourceType: "hackernews",
		Keywords:   keywordsOf("billing problem", "frustrating workflow", "daily struggle"),
	}
	calm := &models.CleanItem{
		SourceType: "hackernews",
		Keywords:   keywordsOf("weekly roundup"),
	}

	painScore := heuristicPainScore(painful)
	calmScore := heuristicPainScore(calm)
	if painScore <= calmScore {
		t.Errorf("pain keywords did not raise score: %v <= %v", painScore, calmScore)
	}
	if painScore <= 5.0 {
		t.Errorf("pain-laden item scored %v, want above neutral 5.0", painScore)
	}
}

// Manual-work complaints phrase pain as "waste", "manual" and "wish" far more
// often than as "problem"; the vocabulary has to catch them end to end.
func TestHeuristicPainScoreFlagsManualWorkComplaints(t *testing.T) {
	raw := "I waste 5 hours a week on manual invoice reconciliation, wish there was an AI tool"

	cfg := &config.Config{
		MinTextLength:      20,
		MaxTextLength:      8000,
		MaxKeywords:        20,
		SupportedLanguages: []string{"en"},
	}
	text := normalize.NewTextProcessor(cfg)
	cleaned := text.CleanText(raw)

	item := &models.CleanItem{
		ID:          "reddit_pain1",
		SourceType:  "reddit",
		CleanedText: cleaned,
		Keywords:    normalize.NewKeywordExtractor(cfg.MaxKeywords).ExtractKeywords(cleaned),
		Entities:    normalize.NewEntityExtractor().ExtractEntities(cleaned),
	}

	if got := heuristicPainScore(item); got <= 5.0 {
		t.Errorf("manual-work complaint scored %v, want above neutral 5.0", got)
	}
}

func TestHeuristicPainScoreWeighsSourceReliability(t *testing.T) {
	mk := func(source string) *models.CleanItem {
		return &models.CleanItem{SourceType: source, Keywords: keywordsOf("billing problem")}
	}

	g2 := heuristicPainScore(mk("g2"))
	newsletter := heuristicPainScore(mk("newsletter"))
	if g2 <= newsletter {
		t.Errorf("g2 (%v) must outscore newsletter (%v) on identical content", g2, newsletter)
	}
}

func TestHeuristicTAMScoreBoostsTech(t *testing.T) {
	withTech := &models.CleanItem{
		Keywords: keywordsOf("market size", "revenue model"),
		Entities: models.EntitySet{Technologies: []string{"ai", "cloud", "api"}},
	}
	bare := &models.CleanItem{}

	if heuristicTAMScore(withTech) <= heuristicTAMScore(bare) {
		t.Error("market and tech signals did not raise TAM score")
	}
}

func TestHeuristicGapScore(t *testing.T) {
	gap := &models.CleanItem{CleanedText: "There is a real lack of tooling and I wish there was an alternative to spreadsheets."}
	none := &models.CleanItem{CleanedText: "Everything works fine."}

	if heuristicGapScore(gap) <= heuristicGapScore(none) {
		t.Error("gap indicators did not raise score")
	}
}

func TestHeuristicSoloFitScorePenalizesComplexity(t *testing.T) {
	complexItem := &models.CleanItem{CleanedText: "enterprise compliance regulation team large scale rollout"}
	simpleItem := &models.CleanItem{CleanedText: "a simple tool, basically a small app or script"}

	complexScore := heuristicSoloFitScore(complexItem)
	simpleScore := heuristicSoloFitScore(simpleItem)
	if complexScore >= simpleScore {
		t.Errorf("complex item (%v) must score below simple item (%v)", complexScore, simpleScore)
	}
	if complexScore < 1.0 {
		t.Errorf("solo fit %v below floor 1.0", complexScore)
	}
}

func TestHeuristicRiskScore(t *testing.T) {
	risky := &models.CleanItem{CleanedText: "legal regulation compliance patent lawsuit territory"}
	mature := &models.CleanItem{
		CleanedText: "standard web app",
		Entities:    models.EntitySet{Technologies: []string{"python", "api", "database"}},
	}

	if heuristicRiskScore(risky) <= heuristicRiskScore(mature) {
		t.Error("risk indicators did not raise risk relative to mature tech")
	}
}

func TestHeuristicsStayInRange(t *testing.T) {
	// Saturate every indicator list at once.
	loaded := &models.CleanItem{
		SourceType:  "g2",
		CleanedText: strings.Repeat("problem missing lack need enterprise compliance legal regulation patent lawsuit data analysis simple tool app market ", 5),
		Keywords:    keywordsOf("problem", "issue", "struggle", "market", "revenue", "customers", "business", "industry"),
		Entities: models.EntitySet{
			Technologies: []string{"ai", "machine learning", "automation", "nlp", "python", "api", "cloud", "database"},
		},
	}
	empty := &models.CleanItem{}

	for _, item := range []*models.CleanItem{loaded, empty} {
		checks := map[string]float64{
			"pain":     heuristicPainScore(item),
			"tam":      heuristicTAMScore(item),
			"gap":      heuristicGapScore(item),
			"ai_fit":   heuristicAIFitScore(item),
			"solo_fit": heuristicSoloFitScore(item),
			"risk":     heuristicRiskScore(item),
		}
		for name, v := range checks {
			if v < 0 || v > 10 {
				t.Errorf("%s score %v outside [0, 10]", name, v)
			}
		}
	}
}

func TestSourceReliabilityTable(t *testing.T) {
	if got := SourceReliability("g2"); got != 0.95 {
		t.Errorf("g2 reliability %v, want 0.95", got)
	}
	if got := SourceReliability("unknown_source"); got != 0.5 {
		t.Errorf("unknown source reliability %v, want 0.5", got)
	}
}

func TestExtractFeaturesShape(t *testing.T) {
	item := &models.CleanItem{
		SourceType:  "reddit",
		CleanedText: "We need automation for this manual data processing problem.",
		Keywords:    keywordsOf("manual data", "processing problem"),
		Entities:    models.EntitySet{Technologies: []string{"automation"}},
	}

	features := ExtractFeatures(item)
	if len(features) != FeatureDim {
		t.Fatalf("got %d features, want %d", len(features), FeatureDim)
	}
	if features[len(features)-1] != 0.8 {
		t.Errorf("reliability feature %v, want 0.8 for reddit", features[len(features)-1])
	}
}
