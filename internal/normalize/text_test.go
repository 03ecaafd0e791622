package normalize

import (
	"strings"
	"testing"

	"opportunity-finder/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		MinTextLength:      20,
		MaxTextLength:      8000,
		MaxKeywords:        20,
		SupportedLanguages: []string{"en"},
		ItemMaxRetries:     3,
	}
}

func TestCleanTextStripsMarkupAndLinks(t *testing.T) {
	p := NewTextProcessor(testConfig())

	got := p.CleanText(`<p>Check out https://example.com/page or mail me at foo@example.com for the <b>full</b> report</p>`)

	for _, banned := range []string{"<p>", "https://", "example.com", "@", "<b>"} {
		if strings.Contains(got, banned) {
			t.Errorf("cleaned text still contains %q: %q", banned, got)
		}
	}
	if !strings.Contains(got, "full report") {
		t.Errorf("cleaned text lost content: %q", got)
	}
}

func TestCleanTextCollapsesWhitespaceAndPunctuation(t *testing.T) {
	p := NewTextProcessor(testConfig())

	got := p.CleanText("So   annoying!!!!! Why????? Just......... why")
	if strings.Contains(got, "  ") {
		t.Errorf("whitespace not collapsed: %q", got)
	}
	if strings.Contains(got, "!!") || strings.Contains(got, "??") {
		t.Errorf("punctuation runs not collapsed: %q", got)
	}
	if !strings.Contains(got, "...") {
		t.Errorf("ellipsis lost: %q", got)
	}
	if strings.Contains(got, "....") {
		t.Errorf("ellipsis not normalized: %q", got)
	}
}

func TestCleanTextTruncatesAtSentenceBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTextLength = 100
	p := NewTextProcessor(cfg)

	first := strings.Repeat("a", 88) + "."
	text := first + " This sentence gets cut off somewhere in the middle"

	got := p.CleanText(text)
	if got != first {
		t.Errorf("got %q, want truncation at sentence boundary %q", got, first)
	}
}

func TestCleanTextTruncatesHardWithoutNearbyBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTextLength = 100
	p := NewTextProcessor(cfg)

	// The only period sits in the first half, outside the final 20%.
	text := strings.Repeat("a", 40) + ". " + strings.Repeat("b", 100)

	got := p.CleanText(text)
	if len(got) != 100 {
		t.Errorf("got length %d, want hard cut at 100", len(got))
	}
}

func TestCleanTextPreservesUnicodeLetters(t *testing.T) {
	p := NewTextProcessor(testConfig())

	got := p.CleanText("The café upgrade was a naïve idea, zu müde to finish")
	for _, want := range []string{"café", "naïve", "müde"} {
		if !strings.Contains(got, want) {
			t.Errorf("cleaned text lost %q: %q", want, got)
		}
	}
}

func TestCleanTextKeepsNonLatinScriptForLanguageGate(t *testing.T) {
	p := NewTextProcessor(testConfig())

	japanese := "経理チームは毎週何時間も手作業で請求書を照合しており、非常に時間がかかります"
	got := p.CleanText(japanese)
	if got == "" {
		t.Fatal("non-Latin text emptied before the language gate could run")
	}
	if p.IsSupportedLanguage(got) {
		t.Error("Japanese accepted with only English configured")
	}
}

func TestIsSupportedLanguage(t *testing.T) {
	p := NewTextProcessor(testConfig())

	if p.IsSupportedLanguage("hi") {
		t.Error("text below minimum length must be rejected")
	}
	if p.IsSupportedLanguage("") {
		t.Error("empty text must be rejected")
	}

	english := "Our accounting team spends hours every week reconciling invoices by hand and it is incredibly frustrating."
	if !p.IsSupportedLanguage(english) {
		t.Error("English text rejected")
	}

	german := "Unser Buchhaltungsteam verbringt jede Woche viele Stunden damit, Rechnungen von Hand abzugleichen."
	if p.IsSupportedLanguage(german) {
		t.Error("German text accepted with only English configured")
	}
}

func TestExtractSentencesAndStats(t *testing.T) {
	p := NewTextProcessor(testConfig())

	text := "First sentence here. Second one follows! Third ends it?"
	sentences := p.ExtractSentences(text)
	if len(sentences) != 3 {
		t.Fatalf("got %d sentences, want 3", len(sentences))
	}

	stats := p.Stats(text)
	if stats.SentenceCount != 3 {
		t.Errorf("got sentence count %d, want 3", stats.SentenceCount)
	}
	if stats.WordCount != 9 {
		t.Errorf("got word count %d, want 9", stats.WordCount)
	}
	if stats.AvgWordsPerSentence != 3 {
		t.Errorf("got avg words per sentence %v, want 3", stats.AvgWordsPerSentence)
	}
}
