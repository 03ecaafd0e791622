package normalize

import (
	"regexp"
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
)

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	urlRe         = regexp.MustCompile(`http[s]?://[^\s]+`)
	emailRe       = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	specialRe     = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?;:()\-'"]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	ellipsisRe    = regexp.MustCompile(`[.]{3,}`)
	bangRunRe     = regexp.MustCompile(`[!]{2,}`)
	questionRunRe = regexp.MustCompile(`[?]{2,}`)
	sentenceRe    = regexp.MustCompile(`[.!?]+`)
)

// TextProcessor cleans raw text and gates on language.
type TextProcessor struct {
	minLength int
	maxLength int
	supported map[string]bool
	detector  lingua.LanguageDetector
}

func NewTextProcessor(cfg *config.Config) *TextProcessor {
	supported := make(map[string]bool, len(cfg.SupportedLanguages))
	for _, lang := range cfg.SupportedLanguages {
		supported[strings.ToLower(strings.TrimSpace(lang))] = true
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		WithPreloadedLanguageModels().
		Build()

	return &TextProcessor{
		minLength: cfg.MinTextLength,
		maxLength: cfg.MaxTextLength,
		supported: supported,
		detector:  detector,
	}
}

// CleanText strips markup, URLs and emails, collapses whitespace and
// punctuation runs, and truncates to the configured maximum. When the cut
// would land mid-sentence and a sentence boundary falls within the final 20%
// of the truncated text, the cut moves back to that boundary.
func (p *TextProcessor) CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = htmlTagRe.ReplaceAllString(text, " ")
	text = urlRe.ReplaceAllString(text, " ")
	text = emailRe.ReplaceAllString(text, " ")
	text = specialRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = ellipsisRe.ReplaceAllString(text, "...")
	text = bangRunRe.ReplaceAllString(text, "!")
	text = questionRunRe.ReplaceAllString(text, "?")
	text = strings.TrimSpace(text)

	if len(text) > p.maxLength {
		text = text[:p.maxLength]
		if lastPeriod := strings.LastIndex(text, "."); lastPeriod > len(text)*4/5 {
			text = text[:lastPeriod+1]
		}
	}

	return text
}

// IsSupportedLanguage gates items on detected language. Texts under the
// minimum length are rejected outright; a detector miss is treated as
// supported rather than dropping a salvageable item.
func (p *TextProcessor) IsSupportedLanguage(text string) bool {
	if text == "" || len(text) < p.minLength {
		return false
	}

	language, exists := p.detector.DetectLanguageOf(text)
	if !exists {
		logger.Debug("Language detection failed, assuming supported", "text_length", len(text))
		return true
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	return p.supported[code]
}

// ExtractSentences splits text on terminal punctuation.
func (p *TextProcessor) ExtractSentences(text string) []string {
	parts := sentenceRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// TextStats summarizes cleaned text for downstream feature extraction.
type TextStats struct {
	CharCount           int
	WordCount           int
	SentenceCount       int
	AvgWordsPerSentence float64
	UniqueWords         int
}

func (p *TextProcessor) Stats(text string) TextStats {
	words := strings.Fields(text)
	sentences := p.ExtractSentences(text)

	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = true
	}

	sentenceCount := len(sentences)
	if sentenceCount == 0 {
		sentenceCount = 1
	}

	return TextStats{
		CharCount:           len(text),
		WordCount:           len(words),
		SentenceCount:       len(sentences),
		AvgWordsPerSentence: float64(len(words)) / float64(sentenceCount),
		UniqueWords:         len(unique),
	}
}
