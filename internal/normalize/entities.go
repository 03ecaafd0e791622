package normalize

import (
	"regexp"
	"sort"
	"strings"

	"opportunity-finder/models"
)

// EntityExtractor finds business, technology, pain-point and opportunity
// terms with dictionary and pattern matchers.
type EntityExtractor struct {
	businessPatterns     []*regexp.Regexp
	painPatterns         []*regexp.Regexp
	opportunityPatterns  []*regexp.Regexp
	organizationPatterns []*regexp.Regexp
}

var businessPatternSrc = []string{
	`\b(?:startup|company|business|firm|corporation|enterprise|venture)\b`,
	`\b(?:saas|paas|iaas|b2b|b2c|api|sdk|platform)\b`,
	`\b(?:market|industry|sector|vertical|niche)\b`,
	`\b(?:revenue|profit|funding|investment|valuation)\b`,
}

var painPatternSrc = []string{
	`\b(?:problem|issue|challenge|difficulty|struggle)\b`,
	`\b(?:frustrating|annoying|time-consuming|manual|tedious|waste)\b`,
	`\b(?:lacking|missing|need|want|wish|hope)\b`,
	`\b(?:inefficient|slow|expensive|complicated)\b`,
}

var opportunityPatternSrc = []string{
	`\b(?:opportunity|gap|demand|potential|untapped)\b`,
	`\b(?:solution|tool|app|service|platform|system)\b`,
	`\b(?:automate|optimize|improve|streamline|simplify)\b`,
	`\b(?:profitable|scalable|viable|marketable)\b`,
}

var organizationPatternSrc = []string{
	`\b[A-Z][a-zA-Z0-9]+(?: [A-Z][a-zA-Z0-9]+)* (?:Inc|Corp|LLC|Ltd|Labs|Technologies|Software)\b`,
}

var techKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "ml", "deep learning",
	"nlp", "natural language processing", "computer vision", "automation",
	"api", "rest", "graphql", "microservices", "cloud", "aws", "azure", "gcp",
	"docker", "kubernetes", "serverless", "lambda", "database", "sql", "nosql",
	"react", "angular", "vue", "node.js", "python", "javascript", "typescript",
	"mobile app", "ios", "android", "flutter", "react native",
	"blockchain", "cryptocurrency", "web3", "smart contracts",
}

func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{
		businessPatterns:     compileAll(businessPatternSrc),
		painPatterns:         compileAll(painPatternSrc),
		opportunityPatterns:  compileAll(opportunityPatternSrc),
		organizationPatterns: compileAll(organizationPatternSrc),
	}
}

func compileAll(srcs []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(srcs))
	for i, src := range srcs {
		out[i] = regexp.MustCompile(src)
	}
	return out
}

// ExtractEntities categorizes matched terms. Results are deduplicated, terms
// shorter than three characters are discarded except for known tech acronyms.
func (e *EntityExtractor) ExtractEntities(text string) models.EntitySet {
	entities := models.EntitySet{
		Organizations: []string{},
		Technologies:  []string{},
		BusinessTerms: []string{},
		PainPoints:    []string{},
		Opportunities: []string{},
	}
	if text == "" {
		return entities
	}

	lower := strings.ToLower(text)

	// Organization patterns run against the original casing.
	for _, re := range e.organizationPatterns {
		entities.Organizations = append(entities.Organizations, re.FindAllString(text, -1)...)
	}

	entities.BusinessTerms = matchAll(lower, e.businessPatterns)
	entities.PainPoints = matchAll(lower, e.painPatterns)
	entities.Opportunities = matchAll(lower, e.opportunityPatterns)

	for _, term := range techKeywords {
		if strings.Contains(lower, term) {
			entities.Technologies = append(entities.Technologies, term)
		}
	}

	entities.Organizations = dedupeTerms(entities.Organizations, 3)
	entities.Technologies = dedupeTerms(entities.Technologies, 2)
	entities.BusinessTerms = dedupeTerms(entities.BusinessTerms, 3)
	entities.PainPoints = dedupeTerms(entities.PainPoints, 3)
	entities.Opportunities = dedupeTerms(entities.Opportunities, 3)

	return entities
}

func matchAll(text string, patterns []*regexp.Regexp) []string {
	var matches []string
	for _, re := range patterns {
		matches = append(matches, re.FindAllString(text, -1)...)
	}
	return matches
}

func dedupeTerms(terms []string, minLen int) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if len(t) < minLen || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
