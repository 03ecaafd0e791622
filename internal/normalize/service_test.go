package normalize

import (
	"testing"
	"time"

	"opportunity-finder/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(testConfig(), nil, nil, nil, nil)
}

func TestBuildCleanItem(t *testing.T) {
	s := newTestService(t)

	raw := models.RawItem{
		ID:         "reddit_abc",
		SourceType: "reddit",
		ScrapedAt:  time.Now().UTC(),
		RawData: map[string]interface{}{
			"title":    "Struggling with invoice reconciliation",
			"selftext": "Our accounting team wastes hours every week matching invoices to payments by hand. We wish there was a simple automation tool for this problem.",
		},
	}

	clean, reason := s.buildCleanItem(&raw)
	if reason != "" {
		t.Fatalf("unexpected drop reason %q", reason)
	}
	if clean.ID != raw.ID || clean.SourceType != raw.SourceType {
		t.Errorf("identity not carried over: %+v", clean)
	}
	if clean.ProcessorVersion != ProcessorVersion {
		t.Errorf("got processor version %q, want %q", clean.ProcessorVersion, ProcessorVersion)
	}
	if clean.CleanedText == "" {
		t.Error("cleaned text empty")
	}
	if len(clean.Keywords) == 0 {
		t.Error("no keywords extracted")
	}
	if !contains(clean.Entities.Technologies, "automation") {
		t.Errorf("technologies %v missing automation", clean.Entities.Technologies)
	}
	if clean.ProcessedAt.IsZero() {
		t.Error("processed_at not set")
	}
}

func TestBuildCleanItemDropsEmptyPayload(t *testing.T) {
	s := newTestService(t)

	raw := models.RawItem{
		ID:         "reddit_empty",
		SourceType: "reddit",
		RawData:    map[string]interface{}{"score": 10.0},
	}

	if _, reason := s.buildCleanItem(&raw); reason != "no_text_content" {
		t.Fatalf("got reason %q, want no_text_content", reason)
	}
}

func TestBuildCleanItemDropsTinyText(t *testing.T) {
	s := newTestService(t)

	raw := models.RawItem{
		ID:         "reddit_tiny",
		SourceType: "reddit",
		RawData:    map[string]interface{}{"title": "ok"},
	}

	if _, reason := s.buildCleanItem(&raw); reason != "unsupported_language" {
		t.Fatalf("got reason %q, want unsupported_language", reason)
	}
}

func TestBuildCleanItemDropsNonLatinScriptAsUnsupportedLanguage(t *testing.T) {
	s := newTestService(t)

	raw := models.RawItem{
		ID:         "reddit_ja",
		SourceType: "reddit",
		RawData: map[string]interface{}{
			"title": "経理チームは毎週何時間も手作業で請求書を照合しており、非常に時間がかかります",
		},
	}

	if _, reason := s.buildCleanItem(&raw); reason != "unsupported_language" {
		t.Fatalf("got reason %q, want unsupported_language", reason)
	}
}

func TestBuildCleanItemDropsNonEnglish(t *testing.T) {
	s := newTestService(t)

	raw := models.RawItem{
		ID:         "reddit_de",
		SourceType: "reddit",
		RawData: map[string]interface{}{
			"title": "Unser Team verbringt jede Woche viele Stunden mit manueller Rechnungsabstimmung.",
		},
	}

	if _, reason := s.buildCleanItem(&raw); reason != "unsupported_language" {
		t.Fatalf("got reason %q, want unsupported_language", reason)
	}
}
