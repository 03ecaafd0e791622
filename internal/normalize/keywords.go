package normalize

import (
	"sort"
	"strings"

	"opportunity-finder/models"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"if": true, "then": true, "this": true, "that": true, "these": true,
	"those": true, "i": true, "you": true, "he": true, "she": true, "it": true,
	"we": true, "they": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "am": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "of": true, "to": true, "in": true,
	"on": true, "at": true, "by": true, "for": true, "with": true, "from": true,
	"as": true, "so": true, "not": true, "no": true, "my": true, "our": true,
	"your": true, "their": true, "there": true, "here": true, "what": true,
	"when": true, "who": true, "how": true, "why": true, "all": true,
	"can": true, "will": true, "would": true, "could": true, "should": true,
	"just": true, "about": true, "into": true, "out": true, "up": true,
	"down": true, "more": true, "some": true, "any": true, "very": true,
}

var businessBoosters = []string{
	"market", "customer", "user", "business", "revenue", "profit",
	"solution", "problem", "opportunity", "startup", "company",
	"tool", "app", "service", "platform", "software", "technology",
}

var genericReducers = []string{
	"thing", "stuff", "way", "time", "people", "person",
	"good", "bad", "nice", "great", "awesome",
}

// KeywordExtractor ranks candidate phrases by frequency weighted with a
// business-relevance heuristic.
type KeywordExtractor struct {
	maxKeywords int
}

func NewKeywordExtractor(maxKeywords int) *KeywordExtractor {
	return &KeywordExtractor{maxKeywords: maxKeywords}
}

// ExtractKeywords returns the top ranked keywords. Candidates are stopword
// filtered unigrams and bigrams; score = frequency x relevance.
func (k *KeywordExtractor) ExtractKeywords(text string) []models.Keyword {
	if text == "" {
		return []models.Keyword{}
	}

	counts := countPhrases(strings.ToLower(text))

	keywords := make([]models.Keyword, 0, len(counts))
	for phrase, count := range counts {
		if len(phrase) <= 3 {
			continue
		}
		relevance := businessRelevance(phrase)
		keywords = append(keywords, models.Keyword{
			Keyword:        phrase,
			Frequency:      count,
			RelevanceScore: relevance,
			FinalScore:     float64(count) * relevance,
		})
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].FinalScore != keywords[j].FinalScore {
			return keywords[i].FinalScore > keywords[j].FinalScore
		}
		return keywords[i].Keyword < keywords[j].Keyword
	})

	if len(keywords) > k.maxKeywords {
		keywords = keywords[:k.maxKeywords]
	}
	return keywords
}

func countPhrases(text string) map[string]int {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '\'')
	})

	counts := make(map[string]int)
	prevContent := ""
	for _, w := range fields {
		w = strings.Trim(w, "-'")
		if w == "" {
			continue
		}
		if stopwords[w] {
			prevContent = ""
			continue
		}
		counts[w]++
		// Bigrams only span adjacent content words.
		if prevContent != "" {
			counts[prevContent+" "+w]++
		}
		prevContent = w
	}
	return counts
}

// businessRelevance scores a phrase in [0.1, 1.0]: boosted by business-term
// co-occurrence, penalized by generic filler.
func businessRelevance(phrase string) float64 {
	score := 0.5

	for _, booster := range businessBoosters {
		if strings.Contains(phrase, booster) {
			score += 0.1
		}
	}
	for _, reducer := range genericReducers {
		if strings.Contains(phrase, reducer) {
			score -= 0.1
		}
	}

	if score < 0.1 {
		return 0.1
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
