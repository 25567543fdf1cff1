package service

import (
	"fmt"
	"testing"

	"github.com/giftguru/gift-guru-go/internal/domain"
)

func post(content string) *domain.SocialPost {
	return &domain.SocialPost{
		Platform: domain.PlatformInstagram,
		ID:       "p1",
		Content:  content,
	}
}

func TestExtractInterestsTopSignalIsExactlyOne(t *testing.T) {
	posts := []*domain.SocialPost{
		post("photography photography photography hiking sunsets"),
		post("hiking boots and photography gear"),
	}

	signals := NewKeywordExtractor().ExtractInterests(posts)

	if len(signals) == 0 {
		t.Fatal("expected signals, got none")
	}
	if signals[0].Confidence != 1.0 {
		t.Fatalf("expected top confidence exactly 1.0, got %v", signals[0].Confidence)
	}
	if signals[0].Category != "photography" {
		t.Fatalf("expected photography as top signal, got %q", signals[0].Category)
	}
	for i, sig := range signals {
		if sig.Confidence < 0 || sig.Confidence > 1 {
			t.Fatalf("signal %d confidence %v out of [0,1]", i, sig.Confidence)
		}
		if sig.Source != "tf-idf-analysis" {
			t.Fatalf("signal %d has source %q", i, sig.Source)
		}
	}
}

func TestExtractInterestsCapsSignalCount(t *testing.T) {
	content := ""
	for i := 0; i < 30; i++ {
		content += fmt.Sprintf("topic%d ", i)
	}

	signals := NewKeywordExtractor().ExtractInterests([]*domain.SocialPost{post(content)})

	if len(signals) != 10 {
		t.Fatalf("expected 10 signals, got %d", len(signals))
	}
}

func TestExtractInterestsEmptyInput(t *testing.T) {
	signals := NewKeywordExtractor().ExtractInterests(nil)
	if len(signals) != 0 {
		t.Fatalf("expected no signals for empty input, got %d", len(signals))
	}
}

func TestExtractInterestsAllStopwords(t *testing.T) {
	signals := NewKeywordExtractor().ExtractInterests([]*domain.SocialPost{
		post("the and of to in is it"),
	})
	if len(signals) != 0 {
		t.Fatalf("expected no signals for stop-word-only input, got %d", len(signals))
	}
}

func TestExtractInterestsSingleTokenNormalizesToOne(t *testing.T) {
	signals := NewKeywordExtractor().ExtractInterests([]*domain.SocialPost{
		post("gardening"),
	})

	if len(signals) != 1 {
		t.Fatalf("expected exactly one signal, got %d", len(signals))
	}
	if signals[0].Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %v", signals[0].Confidence)
	}
}

func TestTokenizeDropsShortAndMixedCase(t *testing.T) {
	tokens := tokenize("Go is FUN: AI, ml, x!")

	// "go" survives (length 2), "is" is a stop word, "x" too short
	want := map[string]bool{"go": true, "fun": true, "ai": true, "ml": true}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %v", len(want), tokens)
	}
	for _, tok := range tokens {
		if !want[tok] {
			t.Fatalf("unexpected token %q in %v", tok, tokens)
		}
	}
}
