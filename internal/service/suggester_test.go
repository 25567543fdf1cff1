package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/giftguru/gift-guru-go/internal/domain"
	apperrors "github.com/giftguru/gift-guru-go/pkg/errors"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	response string
	err      error
	failures int
	calls    int
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, _ string, _ ModelPreset, dest any, _ *GenerateOptions) (*GenerateMetadata, error) {
	f.calls++
	if f.err != nil && (f.failures <= 0 || f.calls <= f.failures) {
		return nil, f.err
	}
	if err := json.Unmarshal([]byte(f.response), dest); err != nil {
		return nil, err
	}
	return &GenerateMetadata{Provider: "Gemini", Model: "test-model"}, nil
}

type fakeSuggestionCache struct {
	entries  map[string][]*domain.GiftSuggestion
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

func newFakeSuggestionCache() *fakeSuggestionCache {
	return &fakeSuggestionCache{entries: make(map[string][]*domain.GiftSuggestion)}
}

func suggestionCacheKey(sessionID, ageGroup string, budget float64) string {
	return sessionID + "|" + ageGroup
}

func (f *fakeSuggestionCache) GetGiftSuggestions(_ context.Context, sessionID, ageGroup string, _ []string, budget float64) ([]*domain.GiftSuggestion, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[suggestionCacheKey(sessionID, ageGroup, budget)], nil
}

func (f *fakeSuggestionCache) CacheGiftSuggestions(_ context.Context, sessionID, ageGroup string, _ []string, budget float64, suggestions []*domain.GiftSuggestion, _ time.Duration) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[suggestionCacheKey(sessionID, ageGroup, budget)] = suggestions
	return nil
}

func (f *fakeSuggestionCache) DeleteGiftSuggestions(_ context.Context, sessionID string) (int64, error) {
	var deleted int64
	for key := range f.entries {
		if len(key) >= len(sessionID) && key[:len(sessionID)] == sessionID {
			delete(f.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func newTestSuggester(gen *fakeGenerator, cache *fakeSuggestionCache) *SuggestionService {
	return NewSuggestionService(gen, cache, SuggestionServiceOptions{
		MaxRetries:     3,
		BaseDelay:      time.Millisecond,
		RequestTimeout: time.Second,
		CacheTTL:       time.Hour,
	}, zap.NewNop())
}

const suggestionJSON = `[
	{"title": "Drawing Tablet", "description": "For digital art", "price": 80, "confidence": 1.7, "category": "Electronics"},
	{"title": "Sketch Set", "description": "Pencils and paper", "price": -5, "confidence": -0.2, "category": "Art Supplies"},
	{"title": "Easel", "description": "Studio easel", "price": 150, "confidence": 0.8, "category": "Art Supplies"}
]`

func TestGetSuggestionsNormalizesResults(t *testing.T) {
	gen := &fakeGenerator{response: suggestionJSON}
	svc := newTestSuggester(gen, newFakeSuggestionCache())

	suggestions, err := svc.GetSuggestions(context.Background(), "adult", []string{"art"}, 100)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(suggestions))
	}

	// Confidence clamped into [0,1]
	if suggestions[0].Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %v", suggestions[0].Confidence)
	}
	if suggestions[1].Confidence != 0.0 {
		t.Fatalf("expected confidence 0.0, got %v", suggestions[1].Confidence)
	}

	// Valid price kept, non-positive and over-budget prices dropped
	if suggestions[0].Price == nil || *suggestions[0].Price != 80 {
		t.Fatalf("expected price 80 kept, got %v", suggestions[0].Price)
	}
	if suggestions[1].Price != nil {
		t.Fatalf("expected negative price dropped, got %v", *suggestions[1].Price)
	}
	if suggestions[2].Price != nil {
		t.Fatalf("expected over-budget price dropped, got %v", *suggestions[2].Price)
	}

	// Defaults filled
	for i, s := range suggestions {
		if s.AgeGroup != "adult" {
			t.Fatalf("suggestion %d missing age group default: %q", i, s.AgeGroup)
		}
		if s.Source != "AI recommendation" {
			t.Fatalf("suggestion %d missing source default: %q", i, s.Source)
		}
	}
}

func TestGetSuggestionsRetriesAnyFailure(t *testing.T) {
	gen := &fakeGenerator{
		response: suggestionJSON,
		err:      errors.New("model hiccup"),
		failures: 2,
	}
	svc := newTestSuggester(gen, newFakeSuggestionCache())

	suggestions, err := svc.GetSuggestions(context.Background(), "adult", []string{"art"}, 100)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", gen.calls)
	}
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(suggestions))
	}
}

func TestGetSuggestionsExhaustsRetries(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}
	svc := newTestSuggester(gen, newFakeSuggestionCache())

	_, err := svc.GetSuggestions(context.Background(), "adult", []string{"art"}, 100)
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperrors.IsRetryExhausted(err) {
		t.Fatalf("expected retry-exhausted error, got %v", err)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", gen.calls)
	}
}

func TestGetSuggestionsCachedMissThenHit(t *testing.T) {
	gen := &fakeGenerator{response: suggestionJSON}
	cache := newFakeSuggestionCache()
	svc := newTestSuggester(gen, cache)

	first, source, err := svc.GetSuggestionsCached(context.Background(), "s1", "adult", []string{"art"}, 100, false)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if source != domain.SourceFresh {
		t.Fatalf("expected fresh on miss, got %q", source)
	}
	if cache.setCalls != 1 {
		t.Fatalf("expected one cache write, got %d", cache.setCalls)
	}

	second, source, err := svc.GetSuggestionsCached(context.Background(), "s1", "adult", []string{"art"}, 100, false)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if source != domain.SourceCache {
		t.Fatalf("expected cache on hit, got %q", source)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generator call total, got %d", gen.calls)
	}
	if len(second) != len(first) {
		t.Fatalf("cached result differs: %d vs %d", len(second), len(first))
	}
	for i := range first {
		if second[i].Title != first[i].Title {
			t.Fatalf("cached suggestion %d differs: %q vs %q", i, second[i].Title, first[i].Title)
		}
	}
}

func TestGetSuggestionsCachedForceRegenerates(t *testing.T) {
	gen := &fakeGenerator{response: suggestionJSON}
	cache := newFakeSuggestionCache()
	svc := newTestSuggester(gen, cache)

	if _, _, err := svc.GetSuggestionsCached(context.Background(), "s1", "adult", []string{"art"}, 100, false); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, source, err := svc.GetSuggestionsCached(context.Background(), "s1", "adult", []string{"art"}, 100, true)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if source != domain.SourceFresh {
		t.Fatalf("force must regenerate, got source %q", source)
	}
	if gen.calls != 2 {
		t.Fatalf("expected 2 generator calls, got %d", gen.calls)
	}
	if cache.setCalls != 2 {
		t.Fatalf("force must refresh the cache entry, got %d writes", cache.setCalls)
	}
}

func TestGetSuggestionsCachedPropagatesReadFailure(t *testing.T) {
	gen := &fakeGenerator{response: suggestionJSON}
	cache := newFakeSuggestionCache()
	cache.getErr = errors.New("redis connection refused")
	svc := newTestSuggester(gen, cache)

	_, _, err := svc.GetSuggestionsCached(context.Background(), "s1", "adult", []string{"art"}, 100, false)
	if !errors.Is(err, cache.getErr) {
		t.Fatalf("expected cache read error, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("read failure must not fall through to generation, got %d calls", gen.calls)
	}
}

func TestGetSuggestionsCachedPropagatesWriteFailure(t *testing.T) {
	gen := &fakeGenerator{response: suggestionJSON}
	cache := newFakeSuggestionCache()
	cache.setErr = errors.New("redis connection refused")
	svc := newTestSuggester(gen, cache)

	_, source, err := svc.GetSuggestionsCached(context.Background(), "s1", "adult", []string{"art"}, 100, false)
	if !errors.Is(err, cache.setErr) {
		t.Fatalf("expected cache write error, got %v", err)
	}
	if source != "" {
		t.Fatalf("failed request must not report a source, got %q", source)
	}
}

func TestMockSuggestionsMatchInterestCategory(t *testing.T) {
	svc := NewSuggestionService(nil, newFakeSuggestionCache(), SuggestionServiceOptions{UseMocks: true}, zap.NewNop())

	suggestions, err := svc.GetSuggestions(context.Background(), "teen", []string{"Sports", "cooking"}, 100)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(suggestions) != 5 {
		t.Fatalf("expected 5 mock suggestions, got %d", len(suggestions))
	}
	if suggestions[0].Title != "Premium Yoga Mat" {
		t.Fatalf("expected sports set, got %q", suggestions[0].Title)
	}
	for _, s := range suggestions {
		if s.Source != "mock data" || s.AgeGroup != "teen" {
			t.Fatalf("mock suggestion not stamped: %+v", s)
		}
	}
}

func TestMockModeServesWithoutGenerator(t *testing.T) {
	// Development wiring passes no generator at all; the mock path must
	// carry the full cached flow on its own.
	cache := newFakeSuggestionCache()
	svc := NewSuggestionService(nil, cache, SuggestionServiceOptions{UseMocks: true, CacheTTL: time.Hour}, zap.NewNop())

	suggestions, source, err := svc.GetSuggestionsCached(context.Background(), "s1", "adult", []string{"art"}, 200, false)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if source != domain.SourceFresh {
		t.Fatalf("expected fresh on first call, got %q", source)
	}
	if len(suggestions) != 5 {
		t.Fatalf("expected 5 mock suggestions, got %d", len(suggestions))
	}
	if cache.setCalls != 1 {
		t.Fatalf("mock results must still be cached, got %d writes", cache.setCalls)
	}

	_, source, err = svc.GetSuggestionsCached(context.Background(), "s1", "adult", []string{"art"}, 200, false)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if source != domain.SourceCache {
		t.Fatalf("expected cache on second call, got %q", source)
	}
}
